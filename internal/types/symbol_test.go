package types

import "testing"

func TestCompareSymbols(t *testing.T) {
	base := Symbol{Name: "red", FilePath: "/w/a.ltd", Line: 3, Column: 4}

	tests := []struct {
		name  string
		other Symbol
		want  int
	}{
		{"equal", base, 0},
		{"name first", Symbol{Name: "blue", FilePath: "/w/z.ltd", Line: 9}, 1},
		{"then file", Symbol{Name: "red", FilePath: "/w/b.ltd", Line: 1}, -1},
		{"then line", Symbol{Name: "red", FilePath: "/w/a.ltd", Line: 2, Column: 9}, 1},
		{"then column", Symbol{Name: "red", FilePath: "/w/a.ltd", Line: 3, Column: 7}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := tt.other
			if got := CompareSymbols(&base, &other); got != tt.want {
				t.Errorf("CompareSymbols = %d, want %d", got, tt.want)
			}
		})
	}
}
