package script

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// Script is a parsed script: the reserved header plus the candidate entries
// that follow it, in input order.
type Script struct {
	// Header is the first array element. Header.Exists() is false for an
	// empty array.
	Header  gjson.Result
	Entries []gjson.Result
}

var errInvalidJSON = errors.New("invalid json")

// Parse turns raw operator text into a Script. The first array element is
// always the header, whatever its shape.
func Parse(text string) (Script, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if text == "" {
		return Script{}, malformed(errBlank)
	}
	if !gjson.Valid(text) {
		return Script{}, malformed(errInvalidJSON)
	}
	root := gjson.Parse(text)
	if !root.IsArray() {
		return Script{}, &Error{Kind: KindShapeError, Err: ErrShape}
	}
	elems := root.Array()
	if len(elems) == 0 {
		return Script{}, nil
	}
	return Script{Header: elems[0], Entries: elems[1:]}, nil
}
