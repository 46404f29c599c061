package script

import "clocktower/internal/catalog"

// Roles is the catalog view the pipeline needs. *catalog.Catalog satisfies it.
type Roles interface {
	Lookup(id string) (catalog.Role, bool)
}

// ValidatedList is a non-empty sequence of ids that all exist in the catalog.
// Order and duplicates are kept from the script.
type ValidatedList []NormalizedID

// Validate checks ids against the catalog. Duplicates pass through untouched;
// every unknown id is reported, not just the first.
func Validate(ids []NormalizedID, roles Roles) (ValidatedList, error) {
	if len(ids) == 0 {
		return nil, &Error{Kind: KindNoCharacters, Err: ErrNoCharacters}
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := roles.Lookup(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, &Error{Kind: KindUnknownCharacters, Unknown: unknown, Err: ErrUnknownCharacters}
	}
	out := make(ValidatedList, len(ids))
	copy(out, ids)
	return out, nil
}
