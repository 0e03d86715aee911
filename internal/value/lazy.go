/*
Copyright © 2025 Logicos Software

lazy.go provides once-computed fields.
*/
package value

// Lazy holds a value computed on first access. The interpreter is single
// threaded, so no synchronization is needed.
type Lazy[T any] struct {
	done bool
	val  T
}

// Get returns the cached value, calling compute the first time only.
func (l *Lazy[T]) Get(compute func() T) T {
	if !l.done {
		l.val = compute()
		l.done = true
	}
	return l.val
}

// Done reports whether the value has been computed.
func (l *Lazy[T]) Done() bool {
	return l.done
}
