package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/scalerwatch/internal/logging"
)

// Runtime holds the settings that may change while the monitor is running.
// They are re-read from the TOML file on every change and applied at the
// start of the next poll cycle.
type Runtime struct {
	SamplingStep   int
	SamplingJitter bool
	ReportMode     string
	ReportInline   bool
	Logging        logging.Config
}

type runtimeFile struct {
	Sampling struct {
		Step   *int  `toml:"step"`
		Jitter *bool `toml:"jitter"`
	} `toml:"sampling"`
	Report struct {
		Mode   *string `toml:"mode"`
		Inline *bool   `toml:"inline"`
	} `toml:"report"`
	Logging map[string]any `toml:"logging"`
}

// LoadRuntime reads the runtime subset of the file at path. Keys absent from
// the file keep the value they have in base.
func LoadRuntime(path string, base Runtime) (Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	var raw runtimeFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	rt := base
	if raw.Sampling.Step != nil {
		if *raw.Sampling.Step < 1 {
			return base, fmt.Errorf("sampling.step must be at least 1, got %d", *raw.Sampling.Step)
		}
		rt.SamplingStep = *raw.Sampling.Step
	}
	if raw.Sampling.Jitter != nil {
		rt.SamplingJitter = *raw.Sampling.Jitter
	}
	if raw.Report.Mode != nil {
		rt.ReportMode = *raw.Report.Mode
	}
	if raw.Report.Inline != nil {
		rt.ReportInline = *raw.Report.Inline
	}
	rt.Logging = mergeLogging(base.Logging, raw.Logging)
	return rt, nil
}

// LoadLoggingConfig reads the [logging] table of the file at path. Besides
// level, format and journal, every key names a module and its level:
//
//	[logging]
//	level = "info"
//	monitor = "debug"
//
// A missing or unparsable file yields the defaults.
func LoadLoggingConfig(path string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	var raw struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg
	}
	return mergeLogging(cfg, raw.Logging)
}

func mergeLogging(base logging.Config, table map[string]any) logging.Config {
	cfg := base
	cfg.Modules = make(map[string]string, len(base.Modules))
	for k, v := range base.Modules {
		cfg.Modules[k] = v
	}
	for key, value := range table {
		switch key {
		case "level":
			cfg.Level = fmt.Sprint(value)
		case "format":
			cfg.Format = fmt.Sprint(value)
		case "journal":
			if b, ok := value.(bool); ok {
				cfg.Journal = b
			}
		default:
			if s, ok := value.(string); ok {
				cfg.Modules[key] = s
			}
		}
	}
	return cfg
}
