package tmpl

// ResultMapper converts evaluated values to text when the result tree is
// finalized, e.g. to escape HTML.
type ResultMapper interface {
	Priority() int
	AppliesTo(origin Origin, value any) bool
	Map(value any, expr *Expression) (string, error)
}

// mapResult converts value with the first applicable mapper.
func (e *Engine) mapResult(value any, expr *Expression) (string, error) {
	value = unwrapItem(value)

	switch value.(type) {
	case nil, *NotFound:
		return "", nil
	}

	origin := expr.Origin()

	for _, m := range e.mappers {
		if m.AppliesTo(origin, value) {
			text, err := m.Map(value, expr)
			if err != nil {
				return "", WrapError(err).At(origin)
			}

			return text, nil
		}
	}

	return Stringify(value), nil
}
