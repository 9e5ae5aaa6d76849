package dedup

const (
	// DefaultExactCapacity is the number of content hashes remembered.
	DefaultExactCapacity = 1000

	// DefaultNearCapacity is the number of accepted texts remembered.
	DefaultNearCapacity = 100

	// DefaultNearWindow is the number of most recent texts compared against.
	DefaultNearWindow = 20

	// DefaultThreshold is the Jaccard similarity at or above which content is
	// a near duplicate.
	DefaultThreshold = 0.8

	// minWordLength is the length a word must exceed to enter a word set.
	minWordLength = 2
)

// Config holds cache sizes and the similarity threshold.
type Config struct {
	ExactCapacity int
	NearCapacity  int
	NearWindow    int
	Threshold     float64
}

// DefaultConfig returns the default deduplication configuration.
func DefaultConfig() Config {
	return Config{
		ExactCapacity: DefaultExactCapacity,
		NearCapacity:  DefaultNearCapacity,
		NearWindow:    DefaultNearWindow,
		Threshold:     DefaultThreshold,
	}
}

// normalize replaces unset values with defaults and keeps the window within
// the near cache capacity.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.ExactCapacity <= 0 {
		c.ExactCapacity = d.ExactCapacity
	}
	if c.NearCapacity <= 0 {
		c.NearCapacity = d.NearCapacity
	}
	if c.NearWindow <= 0 {
		c.NearWindow = d.NearWindow
	}
	if c.NearWindow > c.NearCapacity {
		c.NearWindow = c.NearCapacity
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = d.Threshold
	}
	return c
}
