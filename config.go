package sfmcp

import (
	"encoding/json"
	"fmt"
)

// Config is the base configuration used by library mode via New().
type Config struct {
	Session      SessionConfig      `json:"session"`
	Query        QueryConfig        `json:"query"`
	Exclude      []ExclusionRule    `json:"exclude"`
	ErrorPrompts []ErrorPromptRule  `json:"error_prompts"`
	Sanitization []SanitizationRule `json:"sanitization"`
	AllowWrite   bool               `json:"allow_write"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection ConnectionConfig `json:"connection"`
	Server     ServerSettings   `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// ConnectionConfig holds Snowflake connection parameters used by CLI mode.
// The password is never part of the config file — the CLI reads it from
// SNOWFLAKE_PASSWORD or prompts for it.
type ConnectionConfig struct {
	Account   string `json:"account"`
	User      string `json:"user"`
	Role      string `json:"role"`
	Warehouse string `json:"warehouse"`
	Database  string `json:"database"`
	Schema    string `json:"schema"`
	Host      string `json:"host"` // optional host override (private link deployments)
}

// SessionConfig holds connection gate settings.
type SessionConfig struct {
	// MaxConcurrent caps in-flight tool calls and the size of the
	// underlying connection pool.
	MaxConcurrent int `json:"max_concurrent"`
	// MaxLifetimeSeconds bounds how long an established session is reused
	// before the gate re-authenticates. 0 disables the bound.
	MaxLifetimeSeconds int `json:"max_lifetime_seconds"`
}

// ServerSettings holds HTTP server settings for CLI mode.
type ServerSettings struct {
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
	// Prefetch loads the data dictionary of connection.database once at
	// startup, warming the session and the warehouse before the first
	// agent call. Off by default to keep startup lazy.
	Prefetch bool `json:"prefetch"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, or file path
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	DefaultTimeoutSeconds       int           `json:"default_timeout_seconds"`
	ListTimeoutSeconds          int           `json:"list_timeout_seconds"`
	DescribeTableTimeoutSeconds int           `json:"describe_table_timeout_seconds"`
	MaxSQLLength                int           `json:"max_sql_length"`
	MaxResultLength             int           `json:"max_result_length"`
	TimeoutRules                []TimeoutRule `json:"timeout_rules"`
}

// TimeoutRule maps a SQL pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `json:"pattern"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// ExclusionRule hides objects matching a glob triple from every tool.
// A missing segment matches everything; matching is case-insensitive.
type ExclusionRule struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table"`
}

// ErrorPromptRule maps an error message pattern to a guidance message.
type ErrorPromptRule struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`
}

// SanitizationRule defines a regex-based field sanitization rule.
type SanitizationRule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Description string `json:"description"`
}

// ParseConfig decodes a ServerConfig from JSON. Decoding is strict about
// types: a pattern field holding a number instead of a string is a config
// error, not something to coerce at runtime.
func ParseConfig(data []byte) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
