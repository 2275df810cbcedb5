package classify

import "sync"

// Transition records a change of the debounced gesture state.
type Transition struct {
	From Label
	To   Label
}

// Debouncer tracks the last emitted gesture label and reports only the
// edges. The camera delivers ~15-30 labels per second; without the
// debouncer every steady frame would cost one actuator request.
type Debouncer struct {
	mu      sync.Mutex
	current Label
}

// NewDebouncer returns a Debouncer in the Closed (LED off) state.
func NewDebouncer() *Debouncer {
	return &Debouncer{current: Closed}
}

// Observe feeds one freshly classified label. It returns a Transition and
// true only when the label differs from the current state; the state is
// updated before returning. Frames with no detected hand should be
// observed as Closed, matching the OFF status when no hand is visible.
func (d *Debouncer) Observe(label Label) (Transition, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if label == d.current {
		return Transition{}, false
	}

	tr := Transition{From: d.current, To: label}
	d.current = label
	return tr, true
}

// Current returns the last emitted label.
func (d *Debouncer) Current() Label {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Reset unconditionally returns the state to Closed. Called on every
// session stop so a stopped pipeline always reads OFF.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = Closed
}
