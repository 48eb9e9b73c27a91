package config

// Config is one configuration layer (file, environment or flags).
// Nil fields are left to lower layers.
type Config struct {
	Kinds      *string
	Exclude    *[]string
	Jobs       *int
	DebounceMs *int
	LogFile    *string
	Debug      *bool
	Format     *string
	Sort       *bool
}

// Settings is the fully resolved configuration
type Settings struct {
	Kinds      string   // ctags-style kind spec applied to the default kinds
	Exclude    []string // directory names never walked or watched
	Jobs       int      // parallel parse workers during index build
	DebounceMs int      // watcher batching interval
	LogFile    string   // empty means stderr
	Debug      bool
	Format     string // tag file format; empty picks by output
	Sort       bool   // sort tag file entries by name
}

// Defaults returns the built-in settings
func Defaults() Settings {
	return Settings{
		Exclude:    []string{"vendor", "node_modules"},
		Jobs:       8,
		DebounceMs: 100,
		Sort:       true,
	}
}
