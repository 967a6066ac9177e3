// Package ordering converts relative-age text such as "3 hours ago" into
// minutes and checks that a collected batch runs from newest to oldest.
package ordering

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unbounded is returned for an age whose number parses but whose unit is not
// minutes, hours or days. It sorts after every real age.
//
// NOTE: this hides unexpected units (weeks, months) instead of failing. It is
// kept on purpose until someone decides whether such ages should be rejected.
const Unbounded = math.MaxInt

const (
	minutesPerHour = 60
	minutesPerDay  = 60 * 24
)

// ErrInvalidAgeFormat is matched by every *InvalidAgeFormatError.
var ErrInvalidAgeFormat = errors.New("invalid age format")

// InvalidAgeFormatError reports an age string without a leading integer and
// unit.
type InvalidAgeFormatError struct {
	Age string
}

func (e *InvalidAgeFormatError) Error() string {
	return fmt.Sprintf("invalid age format: %q", e.Age)
}

// Is lets errors.Is(err, ErrInvalidAgeFormat) match.
func (e *InvalidAgeFormatError) Is(target error) bool {
	return target == ErrInvalidAgeFormat
}

var agePattern = regexp.MustCompile(`(?i)^(\d+)\s*([a-z]+)`)

// ParseAgeToMinutes converts an age like "2 hours ago" to 120. Singular and
// plural units are equivalent and matching ignores case.
func ParseAgeToMinutes(age string) (int, error) {
	match := agePattern.FindStringSubmatch(age)
	if match == nil {
		return 0, &InvalidAgeFormatError{Age: age}
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		// Only reachable when the digits overflow int.
		return 0, &InvalidAgeFormatError{Age: age}
	}

	unit := strings.ToLower(match[2])
	switch {
	case strings.HasPrefix(unit, "minute"):
		return value, nil
	case strings.HasPrefix(unit, "hour"):
		return scale(value, minutesPerHour), nil
	case strings.HasPrefix(unit, "day"):
		return scale(value, minutesPerDay), nil
	}

	return Unbounded, nil
}

// scale multiplies value by factor, saturating at Unbounded.
func scale(value, factor int) int {
	if value > Unbounded/factor {
		return Unbounded
	}
	return value * factor
}
