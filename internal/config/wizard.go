package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectDistDir returns the first common frontend build directory that
// contains an index.html, or "dist".
func detectDistDir() string {
	for _, dir := range []string{"dist", "build", "public", "web/dist"} {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			return dir
		}
	}
	return "dist"
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to csvstats! Let's configure the server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:   "Port to listen on",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n < 1 || n > 65535 {
				return errors.New("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(strings.TrimSpace(portStr))

	// 2. Build directory.
	distPrompt := promptui.Prompt{
		Label:   "Frontend build directory",
		Default: detectDistDir(),
	}
	cfg.DistDir, err = distPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("dist dir: %w", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.DistDir, cfg.IndexFile)); err != nil {
		fmt.Printf("Note: %s has no %s yet; build the frontend before running csvstats server.\n\n",
			cfg.DistDir, cfg.IndexFile)
	}

	// 3. Watch mode.
	watchPrompt := promptui.Select{
		Label: "Reload index.html when the build changes",
		Items: []string{"no  - serve the build as it was at startup", "yes - watch for rebuilds"},
	}
	watchIdx, _, err := watchPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("watch selection: %w", err)
	}
	cfg.Watch = watchIdx == 1

	// 4. CSV time column.
	columnPrompt := promptui.Prompt{
		Label:   "Timestamp column name (leave blank to detect)",
		Default: "",
	}
	cfg.CSV.TimeColumn, err = columnPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("time column: %w", err)
	}
	cfg.CSV.TimeColumn = strings.TrimSpace(cfg.CSV.TimeColumn)

	// 5. Extra layouts.
	layoutPrompt := promptui.Prompt{
		Label:   "Extra time layouts (comma-separated Go layouts, blank for built-ins)",
		Default: "",
	}
	layoutStr, err := layoutPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("time layouts: %w", err)
	}
	cfg.CSV.Layouts = splitAndTrim(layoutStr)

	// 6. Timezone.
	tzPrompt := promptui.Prompt{
		Label:   "Timezone for timestamps without an offset",
		Default: cfg.CSV.Timezone,
		Validate: func(s string) error {
			_, err := loadLocation(strings.TrimSpace(s))
			return err
		},
	}
	tz, err := tzPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	cfg.CSV.Timezone = strings.TrimSpace(tz)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
