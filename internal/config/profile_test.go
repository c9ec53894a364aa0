package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if !p.AmountConsistency.Enabled || !p.DateFormat.Enabled {
		t.Error("both rules should be enabled by default")
	}
	if p.AmountConsistency.Code != "Z00014" {
		t.Errorf("Code = %q, want Z00014", p.AmountConsistency.Code)
	}
	if !reflect.DeepEqual(p.AmountConsistency.Amounts, []string{"3000", "5000"}) {
		t.Errorf("Amounts = %v", p.AmountConsistency.Amounts)
	}
	if p.AmountConsistency.ReturnMarker != "返品" {
		t.Errorf("ReturnMarker = %q", p.AmountConsistency.ReturnMarker)
	}
}

func TestLoadProfileOverrides(t *testing.T) {
	path := writeProfile(t, `
amount_consistency:
  code: Z00021
  amounts: ["1000"]
date_format:
  enabled: false
`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	if p.AmountConsistency.Code != "Z00021" {
		t.Errorf("Code = %q, want Z00021", p.AmountConsistency.Code)
	}
	if !reflect.DeepEqual(p.AmountConsistency.Amounts, []string{"1000"}) {
		t.Errorf("Amounts = %v, want [1000]", p.AmountConsistency.Amounts)
	}
	// Fields absent from the file keep their defaults.
	if !p.AmountConsistency.Enabled {
		t.Error("enabled should default to true when omitted")
	}
	if p.AmountConsistency.ReturnMarker != "返品" {
		t.Errorf("ReturnMarker = %q, want the default", p.AmountConsistency.ReturnMarker)
	}
	if p.DateFormat.Enabled {
		t.Error("date_format should be disabled by the profile")
	}
}

func TestLoadProfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIn  string
	}{
		{
			name:    "malformed yaml",
			content: "amount_consistency: [not a map",
			wantIn:  "parse profile",
		},
		{
			name: "empty code",
			content: `
amount_consistency:
  code: ""
`,
			wantIn: "code must not be empty",
		},
		{
			name: "empty amounts",
			content: `
amount_consistency:
  amounts: []
`,
			wantIn: "amounts must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProfile(t, tt.content)
			if _, err := LoadProfile(path); err == nil {
				t.Fatal("expected an error")
			} else if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err, tt.wantIn)
			}
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
