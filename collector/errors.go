package collector

import (
	"errors"
	"fmt"
)

// Collection failure reasons. A *CollectionError wraps one of these.
var (
	ErrCollection   = errors.New("collection failed")
	ErrNoItems      = errors.New("no items found on page")
	ErrMissingField = errors.New("missing item data (id, title, or age)")
	ErrNoMoreLink   = errors.New("no 'More' link available")
	ErrPageLimit    = errors.New("page limit reached")
	ErrShortBatch   = errors.New("fewer items available than requested")
)

// CollectionError reports that a full batch could not be assembled. No
// partial batch is ever returned alongside it.
type CollectionError struct {
	Collected int
	Want      int
	Page      int
	URL       string
	Err       error
}

func (e *CollectionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("collected %d of %d items (page %d, %s): %v",
			e.Collected, e.Want, e.Page, e.URL, e.Err)
	}
	return fmt.Sprintf("collected %d of %d items (%s): %v", e.Collected, e.Want, e.URL, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCollection) match.
func (e *CollectionError) Is(target error) bool {
	return target == ErrCollection
}
