// Package config loads the rc file of the shell.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/elves/jobsh/pkg/eval"
)

// Config holds the settings read from the rc file.
type Config struct {
	// Used as $PS1 and $PS2.
	Prompt             string            `yaml:"prompt"`
	ContinuationPrompt string            `yaml:"continuation_prompt"`
	Aliases            map[string]string `yaml:"aliases"`
	Variables          map[string]string `yaml:"variables"`
	// Long names of options to turn on, like "noclobber".
	Options []string `yaml:"options"`
}

// Default returns the configuration used when there is no rc file.
func Default() *Config {
	return &Config{
		Prompt:             "$ ",
		ContinuationPrompt: "> ",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/jobsh/config.yaml, or
// ~/.config/jobsh/config.yaml when XDG_CONFIG_HOME is not set.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "jobsh", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find config path: %w", err)
	}
	return filepath.Join(home, ".config", "jobsh", "config.yaml"), nil
}

// Load reads the config from the default path. If the file doesn't exist,
// returns the default config.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path. If the file doesn't exist,
// returns the default config.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Apply defines the aliases, variables and options of the config in ev. It
// stops at the first error.
func (c *Config) Apply(ev *eval.Evaler) error {
	if c.Prompt != "" {
		if err := ev.SetVar("PS1", c.Prompt); err != nil {
			return fmt.Errorf("set prompt: %w", err)
		}
	}
	if c.ContinuationPrompt != "" {
		if err := ev.SetVar("PS2", c.ContinuationPrompt); err != nil {
			return fmt.Errorf("set continuation prompt: %w", err)
		}
	}
	for _, name := range sortedKeys(c.Aliases) {
		ev.SetAlias(name, c.Aliases[name])
	}
	for _, name := range sortedKeys(c.Variables) {
		if err := ev.SetVar(name, c.Variables[name]); err != nil {
			return fmt.Errorf("set variable %s: %w", name, err)
		}
	}
	for _, name := range c.Options {
		if err := ev.SetOption(name, true); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
