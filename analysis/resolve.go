// Copyright © 2024 The ELPS authors

package analysis

// Resolve returns the bindings of name visible from s to an access made
// at walk position index.
//
// Block scopes are unioned with their parents until the first function,
// class, comprehension or module scope that binds the name. In s itself
// only bindings recorded before index count. A class body is only visible
// from inside it, never from functions or comprehensions nested in it.
// Builtins are consulted last.
func (s *Scope) Resolve(name string, index int) []*Binding {
	var out []*Binding
	crossed := false
	for scope := s; scope != nil; scope = scope.Parent {
		if scope.Kind == ScopeClass && crossed {
			continue
		}
		if scope.Kind != ScopeBlock && scope.globals[name] {
			out = append(out, scope.Module().LookupLocal(name)...)
			break
		}
		bindings := scope.LookupLocal(name)
		if scope == s {
			bindings = bindingsBefore(bindings, index)
		}
		out = append(out, bindings...)
		if scope.Kind != ScopeBlock {
			if len(out) > 0 {
				return out
			}
			crossed = true
		}
	}
	if len(out) == 0 {
		if b, ok := builtinBindings[name]; ok {
			return []*Binding{b}
		}
	}
	return out
}

func bindingsBefore(bindings []*Binding, index int) []*Binding {
	var out []*Binding
	for _, b := range bindings {
		if b.Index < index {
			out = append(out, b)
		}
	}
	return out
}
