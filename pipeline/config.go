package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	healthdata "github.com/h3x89/Apple-Health-Data-Analyzer"
)

// fileConfig is the YAML shape of the optional run configuration. Every
// field is optional; unset fields keep the defaults.
type fileConfig struct {
	MatchToleranceMinutes *float64           `yaml:"match_tolerance_minutes"`
	NonAmbulatory         []string           `yaml:"non_ambulatory"`
	MaxSpeedKmh           map[string]float64 `yaml:"max_speed_kmh"`
	PeriodStart           string             `yaml:"period_start"`
	PeriodEnd             string             `yaml:"period_end"`
	DuplicatePolicy       string             `yaml:"duplicate_policy"`
	PreferredSource       string             `yaml:"preferred_source"`
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (healthdata.Config, error) {
	cfg := healthdata.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if fc.MatchToleranceMinutes != nil {
		cfg.MatchTolerance = time.Duration(*fc.MatchToleranceMinutes * float64(time.Minute))
	}
	if fc.NonAmbulatory != nil {
		cfg.NonAmbulatory = make(map[healthdata.ActivityType]bool, len(fc.NonAmbulatory))
		for _, name := range fc.NonAmbulatory {
			cfg.NonAmbulatory[healthdata.ActivityType(name)] = true
		}
	}
	for name, kmh := range fc.MaxSpeedKmh {
		cfg.MaxSpeedMPS[healthdata.ActivityType(name)] = kmh / 3.6
	}
	if fc.PeriodStart != "" {
		cfg.PeriodStart, err = time.Parse("2006-01-02", fc.PeriodStart)
		if err != nil {
			return cfg, fmt.Errorf("parse period_start: %w", err)
		}
	}
	if fc.PeriodEnd != "" {
		cfg.PeriodEnd, err = time.Parse("2006-01-02", fc.PeriodEnd)
		if err != nil {
			return cfg, fmt.Errorf("parse period_end: %w", err)
		}
	}
	if fc.DuplicatePolicy != "" {
		switch policy := healthdata.DuplicatePolicy(fc.DuplicatePolicy); policy {
		case healthdata.DuplicateSum, healthdata.DuplicatePreferSource:
			cfg.DuplicatePolicy = policy
		default:
			return cfg, fmt.Errorf("unknown duplicate_policy %q", fc.DuplicatePolicy)
		}
	}
	if fc.PreferredSource != "" {
		cfg.PreferredSource = fc.PreferredSource
	}
	return cfg, nil
}
