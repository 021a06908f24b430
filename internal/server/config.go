package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/collectionmap/internal/matcher"
	"github.com/agentstation/collectionmap/pkg/constants"
	"github.com/agentstation/collectionmap/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Listener
	Host string
	Port int

	// API
	PathPrefix     string
	MaxUploadBytes int64

	// CORS
	CORSEnabled bool
	CORSOrigins []string

	// Authentication
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Performance
	RateLimit  int  // requests per minute per client, 0 disables
	TrustProxy bool // take the client address from X-Forwarded-For
	CacheTTL   time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "/api",
		MaxUploadBytes: constants.DefaultMaxUploadBytes,
		AuthHeader:     "X-API-Key",
		RateLimit:      100,
		CacheTTL:       5 * time.Minute,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   constants.CommitTimeout + 30*time.Second,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
	}
}

// Addr returns the host:port the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate normalizes the prefix and checks the values that would make the
// server unusable.
func (c *Config) Validate() error {
	c.PathPrefix = "/" + strings.Trim(strings.TrimSpace(c.PathPrefix), "/")
	if c.PathPrefix == "/" {
		c.PathPrefix = ""
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewConfigError("server", fmt.Sprintf("port %d out of range", c.Port), nil)
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = constants.DefaultMaxUploadBytes
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.RateLimit < 0 {
		return errors.NewConfigError("server", "rate limit must not be negative", nil)
	}
	if c.AuthEnabled && c.APIKey == "" {
		return errors.NewConfigError("server", "authentication enabled but no API key configured", nil)
	}
	if _, err := matcher.NewSet(c.CORSOrigins); err != nil {
		return errors.NewConfigError("server", "invalid CORS origin", err)
	}
	if c.AuthHeader == "" {
		c.AuthHeader = "X-API-Key"
	}
	return nil
}
