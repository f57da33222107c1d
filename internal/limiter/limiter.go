// Package limiter bounds concurrent conversions in-process. Each request
// holds one slot for its full decode-to-serialize lifetime; a saturated
// limiter makes the boundary answer busy instead of queueing unbounded work.
package limiter

// Limiter is a fixed-size slot pool.
type Limiter struct {
	sem chan struct{}
}

// New creates a Limiter with max concurrent slots.
func New(max int) *Limiter {
	if max <= 0 {
		max = 4
	}
	return &Limiter{sem: make(chan struct{}, max)}
}

// Allow tries to reserve a slot. Returns a release function and true if
// allowed; otherwise a no-op and false.
func (l *Limiter) Allow() (func(), bool) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, true
	default:
		return func() {}, false
	}
}

// InUse reports the number of currently held slots.
func (l *Limiter) InUse() int { return len(l.sem) }
