package parsers

// Collector is an insertion-ordered, deduplicated, capped set of article IDs.
type Collector struct {
	seen    map[string]struct{}
	exclude map[string]struct{}
	ids     []string
	limit   int
}

// NewCollector creates a collector holding at most limit IDs. IDs listed in
// exclude are never accepted.
func NewCollector(limit int, exclude ...string) *Collector {
	c := &Collector{
		seen:    make(map[string]struct{}),
		exclude: make(map[string]struct{}, len(exclude)),
		limit:   limit,
	}

	for _, id := range exclude {
		c.exclude[id] = struct{}{}
	}

	return c
}

// Add appends id unless it is invalid, excluded, already present or the collector is full.
func (c *Collector) Add(id string) bool {
	if c.Full() || !IsArticleID(id) {
		return false
	}

	if _, ok := c.exclude[id]; ok {
		return false
	}

	if _, ok := c.seen[id]; ok {
		return false
	}

	c.seen[id] = struct{}{}
	c.ids = append(c.ids, id)

	return true
}

// AddAll adds ids in order and returns how many were accepted.
func (c *Collector) AddAll(ids []string) int {
	added := 0

	for _, id := range ids {
		if c.Full() {
			break
		}

		if c.Add(id) {
			added++
		}
	}

	return added
}

// Full reports whether the cap has been reached.
func (c *Collector) Full() bool {
	return len(c.ids) >= c.limit
}

// Len returns the number of collected IDs.
func (c *Collector) Len() int {
	return len(c.ids)
}

// IDs returns a copy of the collected IDs in insertion order.
func (c *Collector) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)

	return out
}
