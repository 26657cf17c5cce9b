package fn

// Result[T] carries either a value or the error that prevented it. Stages
// and retries pass Results so failures flow through without extra returns.
type Result[T any] struct {
	val T
	err error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{val: v} }

// Err wraps a failure. A nil err yields a successful zero value.
func Err[T any](err error) Result[T] { return Result[T]{err: err} }

// FromPair adapts a (value, error) return.
func FromPair[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Unwrap returns the value and error.
func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// Option[T] holds a value that may be absent. The zero Option is None.
// Matchers return Options: absence is not an error.
type Option[T any] struct {
	val T
	ok  bool
}

func Some[T any](v T) Option[T] { return Option[T]{val: v, ok: true} }
func None[T any]() Option[T]    { return Option[T]{} }

func (o Option[T]) IsSome() bool { return o.ok }

// Get returns the value and whether it was present.
func (o Option[T]) Get() (T, bool) { return o.val, o.ok }
