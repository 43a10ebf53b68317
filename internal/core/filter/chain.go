package filter

import "github.com/yndnr/kvantum-go/internal/core/socket"

type link struct {
	key  string
	eval Func
}

// Chain is an immutable, ordered list of active filters.
type Chain struct {
	links []link
}

// NewChain builds a chain from entries, keeping their order.
func NewChain(entries ...Entry) *Chain {
	c := &Chain{links: make([]link, 0, len(entries))}
	for _, e := range entries {
		c.links = append(c.links, link{key: e.Key, eval: e.Eval})
	}
	return c
}

// Evaluate runs the filters in order. It stops at the first filter that
// returns false and reports that filter's key.
func (c *Chain) Evaluate(sc *socket.Context) (admitted bool, rejectedBy string) {
	if c == nil {
		return true, ""
	}
	for _, l := range c.links {
		if !l.eval(sc) {
			return false, l.key
		}
	}
	return true, ""
}

// Keys returns the keys of the active filters in evaluation order.
func (c *Chain) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.links))
	for i, l := range c.links {
		keys[i] = l.key
	}
	return keys
}

// Len returns the number of active filters.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.links)
}
