package ordering

import (
	"errors"
	"fmt"

	"github.com/pevans/hnsort/article"
)

var (
	// ErrOutOfOrder is matched by every *OutOfOrderError.
	ErrOutOfOrder = errors.New("items are not sorted newest to oldest")

	// ErrBatchSize is returned by ValidateBatch when the batch has the wrong
	// length.
	ErrBatchSize = errors.New("unexpected batch size")
)

// OutOfOrderError names the first adjacent pair where the earlier item is
// older than the later one.
type OutOfOrderError struct {
	Index   int
	Age     string
	NextAge string
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("items are not sorted correctly at index %d: %q is older than %q",
		e.Index, e.Age, e.NextAge)
}

// Is lets errors.Is(err, ErrOutOfOrder) match.
func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// Normalize converts every item's age to minutes, keeping order. It stops at
// the first age that cannot be parsed.
func Normalize(items []article.Item) ([]int, error) {
	minutes := make([]int, 0, len(items))
	for _, item := range items {
		m, err := ParseAgeToMinutes(item.Age)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", item.Index, err)
		}
		minutes = append(minutes, m)
	}
	return minutes, nil
}

// Validate checks that normalized ages never decrease from one item to the
// next. Equal ages are allowed.
func Validate(items []article.Item) error {
	minutes, err := Normalize(items)
	if err != nil {
		return err
	}

	for i := 0; i < len(minutes)-1; i++ {
		if minutes[i] > minutes[i+1] {
			return &OutOfOrderError{
				Index:   i,
				Age:     items[i].Age,
				NextAge: items[i+1].Age,
			}
		}
	}

	return nil
}

// ValidateBatch asserts the batch has exactly want items before running
// Validate.
func ValidateBatch(items []article.Item, want int) error {
	if len(items) != want {
		return fmt.Errorf("%w: expected exactly %d items, got %d", ErrBatchSize, want, len(items))
	}
	return Validate(items)
}
