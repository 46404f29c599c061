package script

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why a script was rejected.
type Kind string

const (
	KindMalformedInput    Kind = "malformed_input"
	KindShapeError        Kind = "shape_error"
	KindNoCharacters      Kind = "no_characters"
	KindUnknownCharacters Kind = "unknown_characters"
)

var (
	ErrMalformedInput    = errors.New("script is not valid JSON")
	ErrShape             = errors.New("script must be a JSON array")
	ErrNoCharacters      = errors.New("no valid characters found in script")
	ErrUnknownCharacters = errors.New("invalid character found in script")
	errBlank             = errors.New("script is empty")
)

// Error is the failure returned by every pipeline stage.
type Error struct {
	Kind Kind
	// Unknown lists every unrecognised normalized id in encounter order,
	// duplicates kept. Only set for KindUnknownCharacters.
	Unknown []string
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindUnknownCharacters {
		return fmt.Sprintf("%v: %s", e.Err, FormatIDs(e.Unknown))
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Blank reports whether the input was empty rather than unparsable.
func (e *Error) Blank() bool {
	return errors.Is(e.Err, errBlank)
}

// AsError extracts a pipeline error.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

const missingID = "(missing id)"

// FormatIDs joins ids for display; an empty id shows as "(missing id)".
func FormatIDs(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		if id == "" {
			id = missingID
		}
		parts[i] = id
	}
	return strings.Join(parts, ", ")
}

func malformed(cause error) *Error {
	return &Error{Kind: KindMalformedInput, Err: fmt.Errorf("%w: %w", ErrMalformedInput, cause)}
}
