package button

import (
	"math"
	"time"
)

// Button debounces a raw contact sampled once per tick and classifies the
// stable signal into gestures.
//
// The filter keeps the last StableTicks+1 raw samples in a bit-packed shift
// register. A press edge is the pattern "one not-pressed sample followed by
// StableTicks pressed samples" (e.g. 0,1,1,1 for N=3); a release edge is the
// inverse (1,0,0,0). Chatter shorter than StableTicks samples never changes
// the debounced state.
//
// Single writer: all mutation happens inside Tick/Poll/Init, which are meant
// to be called from one goroutine (typically a ticker loop). Exported fields
// may be read — and the counters zeroed — from that same goroutine; cross-
// goroutine consumers should go through a synchronized snapshot instead.
type Button struct {
	// IsDown is the current debounced state. It only flips on a detected
	// stable transition, never on a single raw sample.
	IsDown bool
	// HoldMs is how long the button has been continuously down since the
	// last debounced press, in ms. Saturates instead of wrapping, so a
	// very long hold never reads as "just started".
	HoldMs uint16
	// Counts are the saturating gesture counters.
	Counts Counts

	sample       func() bool
	tickMs       uint16
	longMs       uint32
	doubleMs     uint32
	mask         uint8 // low StableTicks+1 bits
	rise         uint8 // press pattern: 0 then N ones
	fall         uint8 // release pattern: 1 then N zeros
	history      uint8 // shift register of raw samples, newest in bit 0
	clockMs      uint64
	pressedAtMs  uint64
	releasedAtMs uint64
	everReleased bool
	pendingShort bool
}

// New returns a Button with defaults applied for zero Config fields,
// already initialized.
func New(cfg Config) *Button {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if cfg.StableTicks <= 0 {
		cfg.StableTicks = DefaultStableTicks
	}
	if cfg.StableTicks > 7 {
		cfg.StableTicks = 7
	}
	if cfg.LongPress <= 0 {
		cfg.LongPress = DefaultLongPress
	}
	if cfg.DoublePressWindow <= 0 {
		cfg.DoublePressWindow = DefaultDoublePressWindow
	}

	tickMs := clampTickMs(cfg.TickPeriod)
	if tickMs == 0 {
		// Sub-millisecond periods truncate to zero; the clock must advance.
		tickMs = clampTickMs(DefaultTickPeriod)
	}

	n := uint(cfg.StableTicks)
	b := &Button{
		sample:   cfg.Sample,
		tickMs:   tickMs,
		longMs:   uint32(cfg.LongPress.Milliseconds()),
		doubleMs: uint32(cfg.DoublePressWindow.Milliseconds()),
		mask:     uint8((1 << (n + 1)) - 1),
		rise:     uint8((1 << n) - 1),
		fall:     uint8(1 << n),
	}
	b.Init()
	return b
}

// Init zeroes all filter and classifier state and the counters. Callable
// at any time to reset the instance.
func (b *Button) Init() {
	b.IsDown = false
	b.HoldMs = 0
	b.Counts = Counts{}
	b.history = 0
	b.clockMs = 0
	b.pressedAtMs = 0
	b.releasedAtMs = 0
	b.everReleased = false
	b.pendingShort = false
}

// SetTickPeriod overrides the assumed interval between Tick calls. A
// period that truncates to zero milliseconds is silently ignored,
// preserving the previous value. Timestamps already recorded are not
// rescaled.
func (b *Button) SetTickPeriod(d time.Duration) {
	if ms := clampTickMs(d); ms > 0 {
		b.tickMs = ms
	}
}

// TickPeriod returns the currently assumed interval between Tick calls.
func (b *Button) TickPeriod() time.Duration {
	return time.Duration(b.tickMs) * time.Millisecond
}

// ClockMs returns the internal clock, ms elapsed since Init.
func (b *Button) ClockMs() uint64 {
	return b.clockMs
}

// Poll performs one update using the bound Sample source. Without a
// bound source the raw sample is taken as not pressed.
func (b *Button) Poll() []Event {
	pressed := false
	if b.sample != nil {
		pressed = b.sample()
	}
	return b.Tick(pressed)
}

// Tick performs one filter and classifier update with the given raw
// sample and returns the gestures fired this tick. It must be called at
// the configured tick period; it completes in constant time.
func (b *Button) Tick(pressed bool) []Event {
	b.clockMs += uint64(b.tickMs)

	b.history <<= 1
	if pressed {
		b.history |= 1
	}

	var events []Event

	// The two patterns are mutually exclusive, at most one edge per tick.
	switch b.history & b.mask {
	case b.rise:
		b.IsDown = true
		b.HoldMs = 0
		b.pendingShort = false
		b.pressedAtMs = b.clockMs
		b.Counts.Pressed = satInc(b.Counts.Pressed)
		events = append(events, Event{Type: GesturePress, ClockMs: b.clockMs})

	case b.fall:
		b.IsDown = false
		b.Counts.Released = satInc(b.Counts.Released)
		events = append(events, Event{Type: GestureRelease, ClockMs: b.clockMs, HoldMs: b.HoldMs})
		events = append(events, b.classifyRelease()...)
		b.releasedAtMs = b.clockMs
		b.everReleased = true
	}

	// Accumulate hold time after edge handling so the press tick itself
	// counts one period.
	if b.IsDown && b.HoldMs < math.MaxUint16-b.tickMs {
		b.HoldMs += b.tickMs
	}

	// A withheld short press is reported once the double-press window
	// has elapsed with no follow-up press.
	if b.pendingShort && b.clockMs-b.releasedAtMs > uint64(b.doubleMs) {
		b.pendingShort = false
		b.Counts.ShortPress = satInc(b.Counts.ShortPress)
		events = append(events, Event{Type: GestureShortPress, ClockMs: b.clockMs})
	}

	return events
}

// classifyRelease decides long/double/pending-short for the release edge
// being processed. releasedAtMs still holds the previous release here.
func (b *Button) classifyRelease() []Event {
	switch {
	case uint32(b.HoldMs) > b.longMs:
		// A long press is never also a double press, even when this
		// press started right after the previous release.
		b.Counts.LongPress = satInc(b.Counts.LongPress)
		return []Event{{Type: GestureLongPress, ClockMs: b.clockMs, HoldMs: b.HoldMs}}

	case b.everReleased && b.pressedAtMs-b.releasedAtMs < uint64(b.doubleMs):
		b.Counts.DoublePress = satInc(b.Counts.DoublePress)
		return []Event{{Type: GestureDoublePress, ClockMs: b.clockMs}}

	default:
		// Wait out the double-press window before calling it short.
		b.pendingShort = true
		return nil
	}
}

func satInc(c uint8) uint8 {
	if c == math.MaxUint8 {
		return c
	}
	return c + 1
}

func clampTickMs(d time.Duration) uint16 {
	ms := d.Milliseconds()
	if ms < 0 {
		return 0
	}
	if ms > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(ms)
}
