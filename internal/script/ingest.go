package script

// Result is a successfully ingested script.
type Result struct {
	Config Config
	// Count is the number of validated characters, duplicates included.
	Count int
}

// Ingest runs the whole pipeline: parse, normalize, validate, canonicalize.
// It has no side effects; callers persist Result.Config themselves.
func Ingest(text string, roles Roles) (Result, error) {
	s, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	list, err := Validate(NormalizeAll(s.Entries), roles)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Config: Canonicalize(list, s.Header, roles),
		Count:  len(list),
	}, nil
}
