package diag

import "fmt"

// Category is the engine's classification of a diagnostic.
type Category uint8

const (
	// CategoryWarning is for warning diagnostics.
	CategoryWarning Category = iota
	// CategoryError marks diagnostics that fail the run.
	CategoryError
	CategorySuggestion
	CategoryMessage
)

func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryError:
		return "error"
	case CategorySuggestion:
		return "suggestion"
	case CategoryMessage:
		return "message"
	}
	return "unknown"
}

// ParseCategory converts an engine category value.
func ParseCategory(v int) (Category, error) {
	if v < int(CategoryWarning) || v > int(CategoryMessage) {
		return 0, fmt.Errorf("unknown diagnostic category %d", v)
	}
	return Category(v), nil
}
