package article

import (
	"errors"
	"fmt"
)

// Errors returned by Item.Validate.
var (
	ErrMissingID    = errors.New("item id is empty")
	ErrMissingTitle = errors.New("item title is empty")
	ErrMissingAge   = errors.New("item age is empty")
)

// Item is a single listing entry collected from the "newest" page. Index is
// assigned in collection order, not taken from the site.
type Item struct {
	Index int    `json:"index" yaml:"index"`
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Age   string `json:"age" yaml:"age"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
	Site  string `json:"site,omitempty" yaml:"site,omitempty"`
}

// Validate checks that the required fields are present.
func (i Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w at index %d", ErrMissingID, i.Index)
	}
	if i.Title == "" {
		return fmt.Errorf("%w at index %d", ErrMissingTitle, i.Index)
	}
	if i.Age == "" {
		return fmt.Errorf("%w at index %d", ErrMissingAge, i.Index)
	}
	return nil
}
