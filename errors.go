package regext

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is the explicit "search ran, nothing found" signal of
	// FindAll and FindLast.
	ErrNoMatch = errors.New("regext: no match")

	// ErrInvalidArgument reports a missing subject.
	ErrInvalidArgument = errors.New("regext: invalid argument")

	// ErrPatternSyntax matches every *PatternSyntaxError via errors.Is.
	ErrPatternSyntax = errors.New("regext: invalid pattern")
)

// PatternSyntaxError reports a pattern or flag string the engine rejected.
// It is returned by Compile and never by matching operations.
type PatternSyntaxError struct {
	Pattern string
	Flags   string
	Err     error // engine or flag parsing error
}

func (e *PatternSyntaxError) Error() string {
	return fmt.Sprintf("regext: invalid pattern /%s/%s: %v", e.Pattern, e.Flags, e.Err)
}

func (e *PatternSyntaxError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPatternSyntax) hold for any PatternSyntaxError.
func (e *PatternSyntaxError) Is(target error) bool {
	return target == ErrPatternSyntax
}

func invalidSubject() error {
	return fmt.Errorf("%w: subject is nil", ErrInvalidArgument)
}
