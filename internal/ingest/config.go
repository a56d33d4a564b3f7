package ingest

import "fmt"

// DefaultChunkSize balances responsiveness against total processing time
// for sheets of a few thousand to tens of thousands of rows.
const DefaultChunkSize = 500

// Config holds configuration for chunked ingestion
type Config struct {
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`
}

// DefaultConfig returns a configuration with the standard chunk size
func DefaultConfig() *Config {
	return &Config{
		ChunkSize: DefaultChunkSize,
	}
}

// Validate checks if the ingestion configuration is valid
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	return nil
}
