package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the server.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // memory | sqlite | postgres
	SQLitePath string `mapstructure:"sqlite_path"`
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiryHrs int           `mapstructure:"expiry_hours"`
	Expiry    time.Duration `mapstructure:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsProduction returns true if running in production mode.
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
