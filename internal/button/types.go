// Package button contains the pure debounce and gesture logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is a millisecond clock advanced by a fixed step on every Tick, so the
// whole state machine is deterministic and testable without real time.
package button

import "time"

// Defaults match a 10ms poll interval on a mechanical contact.
const (
	// DefaultTickPeriod is the assumed interval between Tick calls.
	DefaultTickPeriod = 10 * time.Millisecond
	// DefaultStableTicks is how many consecutive identical samples are
	// required before an edge is reported. With a 10ms tick, detection
	// latency is ~40ms in each direction, which bounds the reliably
	// detectable event rate to roughly 10-12 per second.
	DefaultStableTicks = 3
	// DefaultLongPress is the hold duration above which a release is
	// classified as a long press.
	DefaultLongPress = 1000 * time.Millisecond
	// DefaultDoublePressWindow is the maximum gap between a release and
	// the next press for the pair to count as a double press. It is also
	// how long a short press is withheld before being reported.
	DefaultDoublePressWindow = 200 * time.Millisecond
)

// Gesture identifies a classified button event.
type Gesture string

const (
	GesturePress       Gesture = "PRESS"
	GestureRelease     Gesture = "RELEASE"
	GestureShortPress  Gesture = "SHORT_PRESS"
	GestureLongPress   Gesture = "LONG_PRESS"
	GestureDoublePress Gesture = "DOUBLE_PRESS"
)

// Event is a gesture fired by a single Tick.
type Event struct {
	Type Gesture
	// ClockMs is the button's internal clock (ms since Init) when the
	// event fired.
	ClockMs uint64
	// HoldMs is the debounced hold duration at the instant of release.
	// Set for RELEASE and LONG_PRESS events, zero otherwise.
	HoldMs uint16
}

// Counts holds the saturating event counters. Each counter stops at its
// maximum instead of wrapping; the application may zero any of them
// between reads. The core never resets them except in Init.
type Counts struct {
	Pressed     uint8
	Released    uint8
	ShortPress  uint8
	LongPress   uint8
	DoublePress uint8
}

// Config parameterizes a Button. Zero fields take the defaults above.
type Config struct {
	// TickPeriod is the assumed interval between Tick calls, used to
	// advance the internal clock and accumulate hold time.
	TickPeriod time.Duration
	// StableTicks is the number of consecutive identical samples needed
	// to report an edge. Clamped to [1, 7] so the history fits one byte.
	StableTicks int
	// LongPress is the hold duration threshold for a long press.
	LongPress time.Duration
	// DoublePressWindow is the release-to-press gap for a double press.
	DoublePressWindow time.Duration
	// Sample, when set, supplies the raw contact state for Poll. A
	// Button without a Sample source treats Poll as "not pressed".
	Sample func() bool
}
