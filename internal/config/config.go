// Package config loads telescope's process-wide feature flags, in the
// style the teacher loads funxy.yaml: a small yaml.v3-tagged struct,
// a Load that reads and unmarshals a file, and a Default for the
// zero-config case.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dtlc-lang/telescope/internal/elab"
)

// Config is the full set of telescope feature flags. There is no
// validate/setDefaults split here the way the teacher's ext.Config
// needs one — every field already has a safe zero value.
type Config struct {
	// AltAppInference switches RApp's function-type resolution to the
	// experimental alternate rule from spec.md §9's open question.
	AltAppInference bool `yaml:"alt_app_inference"`

	// Color is "auto" (detect a TTY), "always", or "never". Empty is
	// treated as "auto".
	Color string `yaml:"color"`

	// DBPath is the metastore database file that telescope elab/nf/type
	// record elaboration runs to, when set, and that telescope metas
	// reads when no --db flag is given.
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration telescope runs with when no
// --config flag and no TELESCOPE_CONFIG file is found.
func Default() *Config {
	return &Config{Color: "auto"}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv applies TELESCOPE_ALT_APP_INFERENCE and TELESCOPE_DB_PATH
// environment overrides on top of cfg, mutating it in place. Env
// overrides win over a loaded file, matching the usual
// file-then-environment precedence of CLI tools in the teacher's own
// codebase (funxy.yaml settings can likewise be overridden by
// FUNXY_* environment variables at build time).
func (cfg *Config) LoadEnv() {
	if v := os.Getenv("TELESCOPE_ALT_APP_INFERENCE"); v != "" {
		cfg.AltAppInference = v == "1" || v == "true"
	}
	if v := os.Getenv("TELESCOPE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TELESCOPE_COLOR"); v != "" {
		cfg.Color = v
	}
}

// Apply wires cfg's flags into the packages that read them.
// Outside tests, internal/elab.AltAppInference is never assigned
// anywhere else in this repository — this is the one call site, so the flag is only
// ever reachable through configuration, never bare.
func (cfg *Config) Apply() {
	elab.AltAppInference = cfg.AltAppInference
}

// Resolve loads path if non-empty (falling back to TELESCOPE_CONFIG),
// applies environment overrides, and returns the resulting Config
// without yet calling Apply — callers decide when to wire it in.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TELESCOPE_CONFIG")
	}

	var cfg *Config
	if path != "" {
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = Default()
	}

	cfg.LoadEnv()
	return cfg, nil
}
