package ordering

import (
	"testing"

	"github.com/pevans/hnsort/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// itemsWithAges builds a contiguous batch from raw age strings
func itemsWithAges(ages ...string) []article.Item {
	items := make([]article.Item, 0, len(ages))
	for i, age := range ages {
		items = append(items, article.Item{Index: i, ID: "id", Title: "title", Age: age})
	}
	return items
}

// TestValidate_Sorted verifies a newest-to-oldest batch passes
func TestValidate_Sorted(t *testing.T) {
	items := itemsWithAges("1 minute ago", "2 minutes ago", "1 hour ago", "1 day ago")

	assert.NoError(t, Validate(items))
}

// TestValidate_OutOfOrder verifies the first violation is reported with both
// raw ages
func TestValidate_OutOfOrder(t *testing.T) {
	items := itemsWithAges("1 hour ago", "5 minutes ago")

	err := Validate(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	var orderErr *OutOfOrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, 0, orderErr.Index)
	assert.Equal(t, "1 hour ago", orderErr.Age)
	assert.Equal(t, "5 minutes ago", orderErr.NextAge)
	assert.Contains(t, err.Error(), "index 0")
}

// TestValidate_FirstViolationWins verifies scanning stops at the first bad pair
func TestValidate_FirstViolationWins(t *testing.T) {
	items := itemsWithAges("1 minute ago", "3 minutes ago", "2 minutes ago", "1 minute ago")

	var orderErr *OutOfOrderError
	require.ErrorAs(t, Validate(items), &orderErr)
	assert.Equal(t, 1, orderErr.Index)
}

// TestValidate_Ties verifies equal ages are not a violation
func TestValidate_Ties(t *testing.T) {
	items := itemsWithAges("10 minutes ago", "10 minutes ago")

	assert.NoError(t, Validate(items))
}

// TestValidate_MixedUnitsTie verifies equal minutes across units tie
func TestValidate_MixedUnitsTie(t *testing.T) {
	items := itemsWithAges("60 minutes ago", "1 hour ago", "24 hours ago", "1 day ago")

	assert.NoError(t, Validate(items))
}

// TestValidate_InvalidAgeAborts verifies a malformed age fails fast
func TestValidate_InvalidAgeAborts(t *testing.T) {
	items := itemsWithAges("1 hour ago", "yesterday", "5 minutes ago")

	err := Validate(items)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAgeFormat)
	assert.NotErrorIs(t, err, ErrOutOfOrder)

	var formatErr *InvalidAgeFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "yesterday", formatErr.Age)
}

// TestValidate_UnboundedSortsLast verifies unknown units count as oldest
func TestValidate_UnboundedSortsLast(t *testing.T) {
	assert.NoError(t, Validate(itemsWithAges("3 days ago", "2 weeks ago")))

	var orderErr *OutOfOrderError
	require.ErrorAs(t, Validate(itemsWithAges("2 weeks ago", "3 days ago")), &orderErr)
	assert.Equal(t, 0, orderErr.Index)
}

// TestValidate_EmptyAndSingle verifies trivial batches are valid
func TestValidate_EmptyAndSingle(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(itemsWithAges("1 day ago")))
}

// TestNormalize verifies ages are converted in order
func TestNormalize(t *testing.T) {
	minutes, err := Normalize(itemsWithAges("5 minutes ago", "2 hours ago", "1 day ago"))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 120, 1440}, minutes)
}

// TestValidateBatch_WrongSize verifies the size assertion runs first
func TestValidateBatch_WrongSize(t *testing.T) {
	items := itemsWithAges("1 hour ago", "5 minutes ago")

	err := ValidateBatch(items, 3)
	assert.ErrorIs(t, err, ErrBatchSize)
	assert.NotErrorIs(t, err, ErrOutOfOrder)

	assert.ErrorIs(t, ValidateBatch(items, 2), ErrOutOfOrder)
}

// TestValidate_HundredItems verifies a full-size batch with a violation at 41
func TestValidate_HundredItems(t *testing.T) {
	ages := make([]string, 100)
	for i := range ages {
		ages[i] = "1 hour ago"
		if i >= 50 {
			ages[i] = "2 hours ago"
		}
	}
	require.NoError(t, Validate(itemsWithAges(ages...)))

	ages[41] = "3 hours ago"
	var orderErr *OutOfOrderError
	require.ErrorAs(t, Validate(itemsWithAges(ages...)), &orderErr)
	assert.Equal(t, 41, orderErr.Index)
}
