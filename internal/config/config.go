// Package config provides configuration types and loading for availd.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level configuration for availd.
type Config struct {
	// LogLevel sets the slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Table is the storage location for rules. Only meaningful for the
	// sqlite store; other stores ignore it.
	Table string `yaml:"table" mapstructure:"table"`

	// DefaultEffect is the fallback effect for subjects without an explicit
	// default: "allow" or "deny". Defaults to "deny".
	DefaultEffect string `yaml:"default_effect" mapstructure:"default_effect" validate:"omitempty,oneof=allow deny"`

	// RuleTypes maps rule-type names to predicate identifiers, installed
	// into the registry at startup. When empty, every builtin is installed
	// under its canonical name.
	RuleTypes map[string]string `yaml:"rule_types" mapstructure:"rule_types"`

	// Store configures rule persistence.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// InventoryGate configures the inventory_gate resolver selection.
	InventoryGate InventoryGateConfig `yaml:"inventory_gate" mapstructure:"inventory_gate"`

	// Tracing enables the stdout trace exporter.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
}

// StoreConfig selects and configures the rule store backend.
type StoreConfig struct {
	// Driver is one of "memory", "file", or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=memory file sqlite"`
	// Path is the rules file (file driver) or database file (sqlite driver).
	Path string `yaml:"path" mapstructure:"path"`
}

// InventoryGateConfig carries the resolver definitions for the inventory
// predicate. Config files can only express names; the host wires the named
// constructors in code.
type InventoryGateConfig struct {
	// Resolver is the global resolver definition.
	Resolver string `yaml:"resolver" mapstructure:"resolver"`
	// Resolvers maps a subject class (or "*") to a resolver definition.
	Resolvers map[string]string `yaml:"resolvers" mapstructure:"resolvers"`
}

// SetDefaults applies default values for optional fields.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultEffect == "" {
		c.DefaultEffect = "deny"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case "sqlite":
			c.Store.Path = "availd.db"
		default:
			c.Store.Path = "rules.yaml"
		}
	}
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
