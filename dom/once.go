package dom

// Once is a single-fire reaction to the next attach broadcast. It
// unsubscribes itself before running, so the callback runs at most once no
// matter how many broadcasts follow.
type Once struct {
	fn          func()
	unsubscribe func()
	fired       bool
	cancelled   bool
}

// NextAttach schedules fn for the next attach broadcast on bus.
func NextAttach(bus Bus, fn func()) *Once {
	o := &Once{fn: fn}
	o.unsubscribe = bus.OnAttach(o.fire)
	return o
}

func (o *Once) fire() {
	if o.fired || o.cancelled {
		return
	}
	o.fired = true
	o.unsubscribe()
	o.fn()
}

// Fired reports whether the callback has run.
func (o *Once) Fired() bool {
	return o.fired
}

// Cancel drops the reaction if it has not fired yet. It reports whether the
// callback was prevented from running.
func (o *Once) Cancel() bool {
	if o.fired || o.cancelled {
		return false
	}
	o.cancelled = true
	o.unsubscribe()
	return true
}
