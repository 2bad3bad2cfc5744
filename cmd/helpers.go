package cmd

import (
	"fmt"

	"github.com/ziadkadry99/csvstats/internal/config"
	"github.com/ziadkadry99/csvstats/internal/records"
)

// loadConfig loads the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `csvstats init` to create a config file", err)
	}
	return cfg, nil
}

// parseOptions builds CSV parse options from the config. Configured
// layouts are tried before the built-in ones.
func parseOptions(cfg *config.Config) records.Options {
	layouts := make([]string, 0, len(cfg.CSV.Layouts)+len(records.DefaultLayouts))
	layouts = append(layouts, cfg.CSV.Layouts...)
	layouts = append(layouts, records.DefaultLayouts...)
	return records.Options{
		TimeColumn: cfg.CSV.TimeColumn,
		Layouts:    layouts,
		Location:   cfg.Location(),
	}
}
