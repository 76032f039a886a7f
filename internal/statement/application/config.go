package application

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AutomationProperty configures scheduled delivery for one property.
type AutomationProperty struct {
	PropertyID int64    `yaml:"property_id"`
	Recipient  string   `yaml:"recipient"`
	Tags       []string `yaml:"tags"`
}

// AutomationConfig defines the recurring-statement schedule.
type AutomationConfig struct {
	DailyAt         string               `yaml:"daily_at"`
	CalculationType string               `yaml:"calculation_type"`
	Properties      []AutomationProperty `yaml:"properties"`
}

// LoadAutomationConfig loads automation config from yaml or env.
func LoadAutomationConfig() (AutomationConfig, error) {
	cfg := AutomationConfig{
		DailyAt:         getenvDefault("STATEMENT_DAILY_AT", "06:00"),
		CalculationType: getenvDefault("STATEMENT_CALCULATION_TYPE", "checkout"),
	}

	if path := os.Getenv("STATEMENT_AUTOMATION_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DailyAt == "" {
		cfg.DailyAt = "06:00"
	}
	switch strings.ToLower(cfg.CalculationType) {
	case "", "checkout":
		cfg.CalculationType = "checkout"
	case "calendar":
		cfg.CalculationType = "calendar"
	default:
		return cfg, errors.New("statement automation: calculation_type must be checkout or calendar")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
