package config

// Merge applies layers over base in order; later layers win
func Merge(base Settings, layers ...Config) Settings {
	out := base
	out.Exclude = append([]string(nil), base.Exclude...)

	for _, layer := range layers {
		if layer.Kinds != nil {
			out.Kinds = *layer.Kinds
		}
		if layer.Exclude != nil {
			out.Exclude = append([]string(nil), (*layer.Exclude)...)
		}
		if layer.Jobs != nil {
			out.Jobs = *layer.Jobs
		}
		if layer.DebounceMs != nil {
			out.DebounceMs = *layer.DebounceMs
		}
		if layer.LogFile != nil {
			out.LogFile = *layer.LogFile
		}
		if layer.Debug != nil {
			out.Debug = *layer.Debug
		}
		if layer.Format != nil {
			out.Format = *layer.Format
		}
		if layer.Sort != nil {
			out.Sort = *layer.Sort
		}
	}
	return out
}
