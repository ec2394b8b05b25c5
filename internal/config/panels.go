package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PanelDefinition describes one leaderboard panel of the dashboard.
type PanelDefinition struct {
	Key    string `yaml:"key" json:"key"`
	Title  string `yaml:"title" json:"title"`
	Entity string `yaml:"entity" json:"entity"` // "hero" or "item"
	Mode   string `yaml:"mode" json:"mode"`     // "winrate" or "popularity"
	Limit  int    `yaml:"limit" json:"limit"`   // 0 means no limit
}

type panelsFile struct {
	Panels []PanelDefinition `yaml:"panels"`
}

func DefaultPanels() []PanelDefinition {
	return []PanelDefinition{
		{Key: "hero-winrate", Title: "Hero Win Rate", Entity: "hero", Mode: "winrate"},
		{Key: "hero-popularity", Title: "Hero Popularity", Entity: "hero", Mode: "popularity", Limit: 50},
		{Key: "item-winrate", Title: "Item Win Rate", Entity: "item", Mode: "winrate", Limit: 10},
		{Key: "item-popularity", Title: "Item Popularity", Entity: "item", Mode: "popularity", Limit: 50},
	}
}

func LoadPanels(path string) ([]PanelDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read panels file: %w", err)
	}
	return ParsePanels(data)
}

func ParsePanels(data []byte) ([]PanelDefinition, error) {
	var f panelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigurationError{Key: "PANELS_FILE", Value: "yaml", Err: err}
	}
	seen := make(map[string]struct{}, len(f.Panels))
	for i, p := range f.Panels {
		if p.Key == "" {
			return nil, &ConfigurationError{Key: "PANELS_FILE", Value: fmt.Sprintf("panels[%d]", i), Err: fmt.Errorf("key is required")}
		}
		if _, dup := seen[p.Key]; dup {
			return nil, &ConfigurationError{Key: "PANELS_FILE", Value: p.Key, Err: fmt.Errorf("duplicate panel key")}
		}
		seen[p.Key] = struct{}{}
		if p.Entity != "hero" && p.Entity != "item" {
			return nil, &ConfigurationError{Key: "PANELS_FILE", Value: p.Key, Err: fmt.Errorf("entity must be hero or item, got %q", p.Entity)}
		}
		if p.Mode != "winrate" && p.Mode != "popularity" {
			return nil, &ConfigurationError{Key: "PANELS_FILE", Value: p.Key, Err: fmt.Errorf("mode must be winrate or popularity, got %q", p.Mode)}
		}
		if p.Limit < 0 {
			return nil, &ConfigurationError{Key: "PANELS_FILE", Value: p.Key, Err: fmt.Errorf("limit must be non-negative")}
		}
		if p.Title == "" {
			f.Panels[i].Title = p.Key
		}
	}
	if len(f.Panels) == 0 {
		return DefaultPanels(), nil
	}
	return f.Panels, nil
}
