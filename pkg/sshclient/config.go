package sshclient

import (
	"errors"
	"time"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid SSH configuration")
)

// Default configuration values
const (
	DefaultDialTimeout       = 5 * time.Second
	DefaultKeepaliveInterval = 5 * time.Second
)

// Config contains all the information needed to establish an SSH connection
type Config struct {
	// Connection details
	Host string
	Port uint16
	User string

	// Authentication
	PrivateKeyPath string

	// Network configuration
	DialTimeout       time.Duration
	KeepaliveInterval time.Duration

	// For gvproxy tunneling
	GVProxySocketPath string
}

// NewConfig creates a new Config with default values
func NewConfig(host string, port uint16, user, privateKeyPath string) *Config {
	return &Config{
		Host:              host,
		Port:              port,
		User:              user,
		PrivateKeyPath:    privateKeyPath,
		DialTimeout:       DefaultDialTimeout,
		KeepaliveInterval: DefaultKeepaliveInterval,
	}
}

// WithDialTimeout sets the connection timeout
func (c *Config) WithDialTimeout(timeout time.Duration) *Config {
	c.DialTimeout = timeout
	return c
}

// WithKeepaliveInterval sets the keepalive interval (0 disables keepalive)
func (c *Config) WithKeepaliveInterval(interval time.Duration) *Config {
	c.KeepaliveInterval = interval
	return c
}

// WithGVProxySocket sets the gvproxy socket path for tunneling
func (c *Config) WithGVProxySocket(socketPath string) *Config {
	c.GVProxySocketPath = socketPath
	return c
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.Join(ErrInvalidConfig, errors.New("host cannot be empty"))
	}
	if c.User == "" {
		return errors.Join(ErrInvalidConfig, errors.New("user cannot be empty"))
	}
	if c.PrivateKeyPath == "" {
		return errors.Join(ErrInvalidConfig, errors.New("private key path cannot be empty"))
	}
	if c.Port == 0 {
		return errors.Join(ErrInvalidConfig, errors.New("port must be greater than 0"))
	}
	if c.DialTimeout <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("dial timeout must be positive"))
	}
	return nil
}
