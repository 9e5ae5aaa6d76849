package dedup

// Result describes why content was considered a duplicate.
type Result int

const (
	Unique Result = iota
	Exact
	Near
)

func (r Result) String() string {
	switch r {
	case Exact:
		return "exact"
	case Near:
		return "near"
	default:
		return "unique"
	}
}

// Deduplicator runs the exact check followed by the near-duplicate check.
type Deduplicator struct {
	exact *ExactCache
	near  *NearCache
}

// New creates a Deduplicator. Zero config fields use their defaults.
func New(cfg Config) *Deduplicator {
	cfg = cfg.normalize()
	return &Deduplicator{
		exact: NewExactCache(cfg.ExactCapacity),
		near:  NewNearCache(cfg.NearCapacity, cfg.NearWindow, cfg.Threshold),
	}
}

// Check classifies content without changing any state.
func (d *Deduplicator) Check(content string) Result {
	if d.exact.Contains(content) {
		return Exact
	}
	if d.near.IsNearDuplicate(content) {
		return Near
	}
	return Unique
}

// Remember records accepted content in both caches.
func (d *Deduplicator) Remember(content string) {
	d.exact.Remember(content)
	d.near.Remember(content)
}

// Accept checks content and remembers it when unique.
func (d *Deduplicator) Accept(content string) Result {
	r := d.Check(content)
	if r == Unique {
		d.Remember(content)
	}
	return r
}
