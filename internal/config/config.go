// Package config loads server configuration from the LSP
// initializationOptions/didChangeConfiguration payload and, optionally, a
// YAML file passed on the command line, mirroring the teacher's
// marshal-onto-defaults pattern (internal/config/config.go's Load).
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/NorthIsUp/awk-language-server/internal/awkparser"
)

// StylisticWarnings mirrors spec.md §6's three warning toggles.
type StylisticWarnings struct {
	MissingSemicolon    bool `json:"missingSemicolon" yaml:"missingSemicolon"`
	Compatibility       bool `json:"compatibility" yaml:"compatibility"`
	CheckFunctionCalls  bool `json:"checkFunctionCalls" yaml:"checkFunctionCalls"`
}

// Config is the exact option set spec.md §6 names.
type Config struct {
	MaxNumberOfProblems int               `json:"maxNumberOfProblems" yaml:"maxNumberOfProblems"`
	Mode                string            `json:"mode" yaml:"mode"`
	StylisticWarnings   StylisticWarnings `json:"stylisticWarnings" yaml:"stylisticWarnings"`
	Path                []string          `json:"path" yaml:"path"`
}

var defaultConfig = Config{
	MaxNumberOfProblems: 100,
	Mode:                "awk",
	StylisticWarnings: StylisticWarnings{
		MissingSemicolon:   true,
		Compatibility:      true,
		CheckFunctionCalls: true,
	},
	Path: nil,
}

// Load marshals v (typically the raw initializationOptions payload) back to
// JSON and unmarshals it onto a copy of defaultConfig, so only fields
// actually present in v override the defaults.
func Load(v any) (Config, error) {
	cfg := defaultConfig

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, errors.Wrap(err, "marshal configuration source")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal configuration")
	}
	cfg.resolvePath()
	return cfg, nil
}

// LoadFile decodes a YAML config file at path onto a copy of defaultConfig.
// It backs the CLI's --config flag; per SPEC_FULL.md §4.8 its values are
// merged under whatever the LSP client later supplies (LSP options win).
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config file %s", path)
	}
	cfg.resolvePath()
	return cfg, nil
}

// Merge overrides base's MaxNumberOfProblems, Mode and Path with any
// non-zero value of the same field in override, and always replaces
// StylisticWarnings with override's, implementing "LSP options win" over a
// file config: file supplies the base, LSP-provided options are merged on
// top.
func Merge(base, override Config) Config {
	merged := base
	if override.MaxNumberOfProblems != 0 {
		merged.MaxNumberOfProblems = override.MaxNumberOfProblems
	}
	if override.Mode != "" {
		merged.Mode = override.Mode
	}
	if override.Path != nil {
		merged.Path = override.Path
	}
	merged.StylisticWarnings = override.StylisticWarnings
	return merged
}

// resolvePath applies spec.md §6's fallback chain: explicit Path, else
// AWKPATH split on ':', else ["."].
func (c *Config) resolvePath() {
	if len(c.Path) > 0 {
		return
	}
	if awkpath := os.Getenv("AWKPATH"); awkpath != "" {
		c.Path = strings.Split(awkpath, ":")
		return
	}
	c.Path = []string{"."}
}

// ParserMode translates the string Mode option into the awkparser enum:
// "gawk" enables extensions, anything else is strict AWK.
func (c Config) ParserMode() awkparser.Mode {
	if c.Mode == "gawk" {
		return awkparser.ModeGawk
	}
	return awkparser.ModeStrict
}

// Equal reports whether two configs are equivalent for the purpose of
// deciding whether a didChangeConfiguration notification should trigger
// revalidation of all open documents (spec.md §6's last sentence).
func (c Config) Equal(other Config) bool {
	if c.MaxNumberOfProblems != other.MaxNumberOfProblems || c.Mode != other.Mode || c.StylisticWarnings != other.StylisticWarnings {
		return false
	}
	if len(c.Path) != len(other.Path) {
		return false
	}
	for i := range c.Path {
		if c.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}
