package aggregator

// orderedCounter counts occurrences per key and remembers the order in which
// keys were first seen. Map iteration order is never used for selection.
type orderedCounter[K comparable] struct {
	index  map[K]int
	keys   []K
	counts []int64
}

func newOrderedCounter[K comparable]() *orderedCounter[K] {
	return &orderedCounter[K]{
		index: make(map[K]int),
	}
}

func (c *orderedCounter[K]) inc(key K) {
	i, ok := c.index[key]
	if !ok {
		i = len(c.keys)
		c.index[key] = i
		c.keys = append(c.keys, key)
		c.counts = append(c.counts, 0)
	}
	c.counts[i]++
}

// mostCommon returns the key with the highest count. Among keys sharing the
// maximum, the one inserted first wins. ok is false when the counter is empty.
func (c *orderedCounter[K]) mostCommon() (key K, count int64, ok bool) {
	for i, k := range c.keys {
		if c.counts[i] > count {
			key, count, ok = k, c.counts[i], true
		}
	}
	return key, count, ok
}

// each visits keys in first-seen order.
func (c *orderedCounter[K]) each(fn func(key K, count int64)) {
	for i, k := range c.keys {
		fn(k, c.counts[i])
	}
}

func (c *orderedCounter[K]) total() int64 {
	var sum int64
	for _, n := range c.counts {
		sum += n
	}
	return sum
}

func (c *orderedCounter[K]) len() int {
	return len(c.keys)
}

func (c *orderedCounter[K]) snapshot() map[K]int64 {
	out := make(map[K]int64, len(c.keys))
	c.each(func(k K, n int64) {
		out[k] = n
	})
	return out
}
