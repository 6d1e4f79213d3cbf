// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/luthersystems/pyrefcheck/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFile = "pyproject.toml"
	envPrefix  = "PYREFCHECK"
)

// configTables are searched in order; the second is the table name used by
// earlier releases.
var configTables = []string{"tool.pyrefcheck", "tool.pyrefchecker"}

// Config is the resolved configuration for a check run.
type Config struct {
	ShowSuccesses   bool
	Timeout         time.Duration
	AllowImportStar bool
	Include         string
	Exclude         string
	ExtendExclude   []string
	Workers         int
	Format          string
	Color           string
	Watch           bool
	MetricsFile     string
	Verbose         bool
}

// flag name -> config key
var configKeys = map[string]string{
	"show-successes":    "show_successes",
	"timeout":           "timeout",
	"allow-import-star": "allow_import_star",
	"include":           "include",
	"exclude":           "exclude",
	"extend-exclude":    "extend_exclude",
	"workers":           "workers",
	"format":            "format",
	"color":             "color",
	"metrics-file":      "metrics_file",
	"verbose":           "verbose",
}

// newViper returns a viper instance holding the pyproject table (if any),
// environment overrides and the command's flags.
func newViper(cmd *cobra.Command, path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("show_successes", false)
	v.SetDefault("timeout", 5)
	v.SetDefault("allow_import_star", true)
	v.SetDefault("include", runner.DefaultInclude)
	v.SetDefault("exclude", runner.DefaultExclude)
	v.SetDefault("workers", 0)
	v.SetDefault("format", "text")
	v.SetDefault("color", "auto")

	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if table != nil {
		if err := v.MergeConfigMap(table); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for name, key := range configKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// readTable reads the pyrefcheck table of a pyproject file. A missing
// default file is not an error.
func readTable(path string) (map[string]any, error) {
	explicit := path != ""
	if !explicit {
		path = configFile
	}
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	for _, key := range configTables {
		if sub := file.Sub(key); sub != nil {
			return sub.AllSettings(), nil
		}
	}
	return nil, nil
}

// loadConfig resolves the configuration with flag > env > file > default
// precedence.
func loadConfig(cmd *cobra.Command, path string) (Config, error) {
	v, err := newViper(cmd, path)
	if err != nil {
		return Config{}, err
	}
	timeout, err := parseTimeout(v.Get("timeout"))
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ShowSuccesses:   v.GetBool("show_successes"),
		Timeout:         timeout,
		AllowImportStar: v.GetBool("allow_import_star"),
		Include:         v.GetString("include"),
		Exclude:         v.GetString("exclude"),
		ExtendExclude:   v.GetStringSlice("extend_exclude"),
		Workers:         v.GetInt("workers"),
		Format:          v.GetString("format"),
		Color:           v.GetString("color"),
		MetricsFile:     v.GetString("metrics_file"),
		Verbose:         v.GetBool("verbose"),
	}
	if f := cmd.Flags().Lookup("disallow-import-star"); f != nil && f.Changed {
		cfg.AllowImportStar = false
	}
	switch cfg.Format {
	case "text", "json", "pretty", "vet":
	default:
		return Config{}, fmt.Errorf("unknown format %q (want text, json, pretty or vet)", cfg.Format)
	}
	return cfg, nil
}

// parseTimeout accepts whole seconds as a number or numeric string, or a
// Go duration string such as "1500ms".
func parseTimeout(raw any) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case int:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = time.Duration(t * float64(time.Second))
	case string:
		if n, err := strconv.ParseFloat(t, 64); err == nil {
			d = time.Duration(n * float64(time.Second))
			break
		}
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", t, err)
		}
		d = parsed
	default:
		return 0, fmt.Errorf("invalid timeout %v", raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %v: must not be negative", d)
	}
	return d, nil
}
