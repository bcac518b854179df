package dispatch

import "time"

// CallEvent describes one completed invocation, after all attempts.
type CallEvent struct {
	InvocationID string
	Service      string
	Operation    string
	Attempts     int
	StatusCode   int
	Kind         Kind // Zero on success
	Code         string
	RequestID    string
	Started      time.Time
	Duration     time.Duration
}

// OK reports whether the call succeeded.
func (e CallEvent) OK() bool { return e.Kind == 0 }

// Monitor observes completed calls. ObserveCall runs on the goroutine that made
// the call and must not block for long.
type Monitor interface {
	ObserveCall(CallEvent)
}

// MonitorFunc adapts a function to Monitor.
type MonitorFunc func(CallEvent)

// ObserveCall calls f(ev).
func (f MonitorFunc) ObserveCall(ev CallEvent) { f(ev) }

type multiMonitor []Monitor

func (m multiMonitor) ObserveCall(ev CallEvent) {
	for _, mon := range m {
		mon.ObserveCall(ev)
	}
}

// MultiMonitor fans events out to every non-nil monitor.
func MultiMonitor(monitors ...Monitor) Monitor {
	var out multiMonitor
	for _, m := range monitors {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
