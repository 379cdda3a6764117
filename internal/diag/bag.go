package diag

// Bag is an insertion-ordered diagnostic collection.
type Bag struct {
	items []Diagnostic
}

func NewBag(capacity int) *Bag {
	if capacity < 0 {
		capacity = 0
	}
	return &Bag{items: make([]Diagnostic, 0, capacity)}
}

// Add appends d. Order of Add calls is the order of Items.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Len is zero for a nil bag.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Count returns the number of diagnostics in category cat.
func (b *Bag) Count(cat Category) int {
	n := 0
	for _, d := range b.Items() {
		if d.Category == cat {
			n++
		}
	}
	return n
}

// ErrorCount is Count(CategoryError).
func (b *Bag) ErrorCount() int {
	return b.Count(CategoryError)
}
