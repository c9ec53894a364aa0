package config

// profile.go loads the optional validation profile: a YAML file that
// overrides rule parameters per deployment without a rebuild. The profile
// only carries rule settings; transport and operational settings stay in
// the environment.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile describes the active rule set and its parameters.
type Profile struct {
	AmountConsistency AmountRuleProfile `yaml:"amount_consistency"`
	DateFormat        RuleToggle        `yaml:"date_format"`
}

// AmountRuleProfile parameterizes the code/amount consistency rule.
type AmountRuleProfile struct {
	Enabled       bool     `yaml:"enabled"`
	Code          string   `yaml:"code"`
	Amounts       []string `yaml:"amounts"`
	ReturnAmounts []string `yaml:"return_amounts"`
	ReturnMarker  string   `yaml:"return_marker"`
}

// RuleToggle enables or disables a rule that takes no parameters.
type RuleToggle struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultProfile returns the production rule set.
func DefaultProfile() Profile {
	return Profile{
		AmountConsistency: AmountRuleProfile{
			Enabled:       true,
			Code:          "Z00014",
			Amounts:       []string{"3000", "5000"},
			ReturnAmounts: []string{"-3000", "-5000"},
			ReturnMarker:  "返品",
		},
		DateFormat: RuleToggle{Enabled: true},
	}
}

// LoadProfile reads a profile from a YAML file. Fields absent from the
// file keep their defaults, so a profile can override a single parameter.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read profile %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse profile %q: %w", path, err)
	}

	if err := profile.Validate(); err != nil {
		return profile, fmt.Errorf("profile %q: %w", path, err)
	}

	return profile, nil
}

// Validate rejects profiles that would make the battery unusable.
func (p Profile) Validate() error {
	if p.AmountConsistency.Enabled {
		if p.AmountConsistency.Code == "" {
			return fmt.Errorf("amount_consistency.code must not be empty")
		}
		if len(p.AmountConsistency.Amounts) == 0 {
			return fmt.Errorf("amount_consistency.amounts must not be empty")
		}
	}
	return nil
}
