package bigquery

import (
	"errors"
	"testing"
)

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Identifier
		wantErr bool
	}{
		{"table id", "proj.ds.tbl", Identifier{Project: "proj", Dataset: "ds", Name: "tbl"}, false},
		{"routine id", "my-project.analytics.daily_rollup", Identifier{Project: "my-project", Dataset: "analytics", Name: "daily_rollup"}, false},
		{"two segments", "ds.tbl", Identifier{}, true},
		{"one segment", "tbl", Identifier{}, true},
		{"four segments", "proj.ds.tbl.extra", Identifier{}, true},
		{"empty string", "", Identifier{}, true},
		{"empty project", ".ds.tbl", Identifier{}, true},
		{"empty dataset", "proj..tbl", Identifier{}, true},
		{"empty name", "proj.ds.", Identifier{}, true},
		{"only dots", "..", Identifier{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseIdentifier(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("ParseIdentifier(%q) error = %v; want ErrInvalidArgument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIdentifier(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseIdentifier(%q) = %+v; want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIdentifier_Qualified(t *testing.T) {
	t.Parallel()

	id := Identifier{Project: "proj", Dataset: "ds", Name: "tbl"}
	if got := id.Qualified(); got != "ds.tbl" {
		t.Fatalf("Qualified() = %q; want ds.tbl", got)
	}
}
