package ingest

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/collectionmap/internal/csvfile"
	"github.com/agentstation/collectionmap/internal/mapping"
	"github.com/agentstation/collectionmap/pkg/constants"
)

// Option configures a Service.
type Option func(*config) error

type config struct {
	mode       mapping.Mode
	parse      csvfile.Options
	sampleRows int
	logger     *zerolog.Logger
}

func defaultConfig() *config {
	nop := zerolog.Nop()
	return &config{
		mode:       mapping.Lenient,
		parse:      csvfile.Options{MaxBytes: constants.DefaultMaxUploadBytes},
		sampleRows: 5,
		logger:     &nop,
	}
}

// WithMode sets the default row mode for commits.
func WithMode(mode mapping.Mode) Option {
	return func(c *config) error {
		c.mode = mode
		return nil
	}
}

// WithMaxUploadBytes limits the size of an uploaded file.
func WithMaxUploadBytes(n int64) Option {
	return func(c *config) error {
		c.parse.MaxBytes = n
		return nil
	}
}

// WithDelimiter forces the CSV field separator instead of sniffing it.
func WithDelimiter(r rune) Option {
	return func(c *config) error {
		c.parse.Delimiter = r
		return nil
	}
}

// WithSampleRows sets how many rows a preview includes.
func WithSampleRows(n int) Option {
	return func(c *config) error {
		c.sampleRows = max(n, 0)
		return nil
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// MapOption adjusts a single MapUpload call.
type MapOption func(*mapConfig)

type mapConfig struct {
	mode mapping.Mode
}

// WithRowMode overrides the service's row mode for one commit.
func WithRowMode(mode mapping.Mode) MapOption {
	return func(c *mapConfig) {
		c.mode = mode
	}
}
