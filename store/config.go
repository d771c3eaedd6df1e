package store

// Config holds configuration for the DynamoDB Store.
type Config struct {
	// Table is the DynamoDB table holding element documents.
	// Default: "elements"
	Table string

	// IDAttribute is the partition key attribute name (type S).
	// Default: "_id"
	IDAttribute string

	// ScanSegments is the number of parallel segments used for filtered scans.
	// Higher values reduce latency on large tables at the cost of more
	// concurrent read capacity.
	// Default: 1 (sequential scan)
	// Max: 256
	ScanSegments int
}

// DefaultConfig returns sensible defaults for a single elements table.
func DefaultConfig() Config {
	return Config{
		Table:        "elements",
		IDAttribute:  IDKey,
		ScanSegments: 1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "elements"
	}
	if c.IDAttribute == "" {
		c.IDAttribute = IDKey
	}
	if c.ScanSegments < 1 {
		c.ScanSegments = 1
	}
	if c.ScanSegments > 256 {
		c.ScanSegments = 256
	}
}
