package crawl

// LinkSet is an insertion-ordered set of links.
type LinkSet struct {
	items []string
	seen  map[string]bool
}

// NewLinkSet creates an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{
		seen: make(map[string]bool),
	}
}

// Add records a link if it hasn't been seen before.
// It reports whether the link was new.
func (s *LinkSet) Add(link string) bool {
	if s.seen[link] {
		return false
	}
	s.seen[link] = true
	s.items = append(s.items, link)
	return true
}

// Has reports whether the link is already in the set.
func (s *LinkSet) Has(link string) bool {
	return s.seen[link]
}

// Len returns the number of unique links.
func (s *LinkSet) Len() int {
	return len(s.items)
}

// All returns all links in first-seen order.
func (s *LinkSet) All() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
