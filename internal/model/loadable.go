package model

// LoadState is the tag of a Loadable.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loadable holds a value that is fetched asynchronously. Value is only
// meaningful when State is LoadLoaded, Err only when State is LoadFailed.
type Loadable[T any] struct {
	State LoadState
	Value T
	Err   Error
}

func Idle[T any]() Loadable[T]    { return Loadable[T]{State: LoadIdle} }
func Loading[T any]() Loadable[T] { return Loadable[T]{State: LoadLoading} }

func Loaded[T any](v T) Loadable[T] {
	return Loadable[T]{State: LoadLoaded, Value: v}
}

func Failed[T any](err Error) Loadable[T] {
	return Loadable[T]{State: LoadFailed, Err: err}
}

// Equal compares the tag and, for Loaded and Failed, the payload.
func (l Loadable[T]) Equal(o Loadable[T], eq func(a, b T) bool) bool {
	if l.State != o.State {
		return false
	}
	switch l.State {
	case LoadLoaded:
		return eq(l.Value, o.Value)
	case LoadFailed:
		return l.Err == o.Err
	default:
		return true
	}
}
