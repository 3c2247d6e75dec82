package tmpl

// Scope is a parse-time chain of name bindings to type hints. It carries no
// render-time behavior; it exists so that tools can statically check the
// expressions of a parsed template.
type Scope struct {
	parent   *Scope
	bindings map[string]string
}

// NewScope returns an empty scope whose lookups fall back to parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// Parent returns the enclosing scope, or nil for the root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// PutBinding binds name to a type hint in this scope.
func (s *Scope) PutBinding(name, typeHint string) {
	if s.bindings == nil {
		s.bindings = make(map[string]string)
	}

	s.bindings[name] = typeHint
}

// Binding returns the type hint bound to name in this scope or the nearest
// enclosing scope that binds it.
func (s *Scope) Binding(name string) (string, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if hint, ok := sc.bindings[name]; ok {
			return hint, true
		}
	}

	return "", false
}

// Bindings returns the names bound directly in this scope.
func (s *Scope) Bindings() []string {
	return sortedKeys(s.bindings)
}
