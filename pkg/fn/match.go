package fn

// Matcher inspects an input and optionally yields a match.
type Matcher[In, Out any] func(In) Option[Out]

// FirstMatch tries matchers in order and returns the first present result.
// Later matchers are never evaluated once one succeeds.
func FirstMatch[In, Out any](in In, matchers ...Matcher[In, Out]) Option[Out] {
	for _, m := range matchers {
		if out := m(in); out.IsSome() {
			return out
		}
	}
	return None[Out]()
}

// Chain bundles matchers into a single Matcher with first-match-wins semantics.
func Chain[In, Out any](matchers ...Matcher[In, Out]) Matcher[In, Out] {
	return func(in In) Option[Out] {
		return FirstMatch(in, matchers...)
	}
}
