package internal

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/requireiot/button-sensor/internal/button"
	"github.com/requireiot/button-sensor/internal/gpio"
	"github.com/requireiot/button-sensor/internal/mqtt"
	"github.com/requireiot/button-sensor/internal/status"
)

// pattern expands a compact sample script: '0' = open, '1' = pressed.
func pattern(s string) []bool {
	var out []bool
	for _, c := range strings.ReplaceAll(s, " ", "") {
		out = append(out, c == '1')
	}
	return out
}

// drive simulates the main loop: read the fake pin, tick the core,
// publish every gesture.
func drive(t *testing.T, reader gpio.Reader, btn *button.Button, publisher mqtt.Publisher, start time.Time, ticks int) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		pressed, err := reader.Read()
		if err != nil {
			t.Fatalf("tick %d: gpio read error: %v", i, err)
		}
		now := start.Add(time.Duration(i+1) * button.DefaultTickPeriod)
		for _, ev := range btn.Tick(pressed) {
			event := mqtt.Event{
				Timestamp: now,
				Gesture:   ev.Type,
				Down:      btn.IsDown,
				HoldMs:    ev.HoldMs,
				Counts:    btn.Counts,
			}
			if err := publisher.Publish(event); err != nil {
				t.Fatalf("tick %d: publish error: %v", i, err)
			}
		}
	}
}

// TestIntegrationShortPress runs a clean press/release through pin, core
// and publisher, and checks the published payloads.
func TestIntegrationShortPress(t *testing.T) {
	// 4 idle, press held 50ms, release; the fake repeats the trailing
	// idle sample while the double-press window runs out.
	reader := gpio.NewFakeReader(pattern("0000 11111 0"))
	publisher := mqtt.NewFakePublisher()
	btn := button.New(button.Config{})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	drive(t, reader, btn, publisher, start, 40)

	want := []button.Gesture{button.GesturePress, button.GestureRelease, button.GestureShortPress}
	if len(publisher.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(publisher.Events))
	}
	for i, w := range want {
		if publisher.Events[i].Gesture != w {
			t.Errorf("event %d: got %s, want %s", i, publisher.Events[i].Gesture, w)
		}
	}

	// Verify JSON payload shape.
	for i, payload := range publisher.Payloads {
		var parsed mqtt.Payload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Fatalf("payload %d: invalid JSON: %v", i, err)
		}
		if parsed.Button.Timestamp == "" {
			t.Errorf("payload %d: missing timestamp", i)
		}
		if parsed.Button.Event == "" {
			t.Errorf("payload %d: missing event", i)
		}
	}

	var release mqtt.Payload
	json.Unmarshal(publisher.Payloads[1], &release)
	if release.Button.State != "UP" {
		t.Errorf("release payload state: got %s", release.Button.State)
	}
	if release.Button.HoldMs != 50 {
		t.Errorf("release payload hold_ms: got %d, want 50", release.Button.HoldMs)
	}
	if release.Button.Counts.Pressed != 1 || release.Button.Counts.Released != 1 {
		t.Errorf("release payload counts: %+v", release.Button.Counts)
	}
}

// TestIntegrationDoublePress checks that two quick presses publish a
// double press and no short press.
func TestIntegrationDoublePress(t *testing.T) {
	reader := gpio.NewFakeReader(pattern("0000 111 000 00 111 000 0"))
	publisher := mqtt.NewFakePublisher()
	btn := button.New(button.Config{})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	drive(t, reader, btn, publisher, start, 60)

	var gestures []button.Gesture
	for _, ev := range publisher.Events {
		gestures = append(gestures, ev.Gesture)
	}

	want := []button.Gesture{
		button.GesturePress, button.GestureRelease,
		button.GesturePress, button.GestureRelease, button.GestureDoublePress,
	}
	if len(gestures) != len(want) {
		t.Fatalf("expected %v, got %v", want, gestures)
	}
	for i, w := range want {
		if gestures[i] != w {
			t.Errorf("event %d: got %s, want %s", i, gestures[i], w)
		}
	}
	if btn.Counts.ShortPress != 0 {
		t.Errorf("double-press pair also counted short: %+v", btn.Counts)
	}
}

// TestIntegrationLongPress checks a >1s hold publishes a long press and
// nothing else afterwards.
func TestIntegrationLongPress(t *testing.T) {
	samples := append(pattern("0000"), pattern(strings.Repeat("1", 105))...)
	samples = append(samples, false)
	reader := gpio.NewFakeReader(samples)
	publisher := mqtt.NewFakePublisher()
	btn := button.New(button.Config{})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	drive(t, reader, btn, publisher, start, 150)

	var gestures []button.Gesture
	for _, ev := range publisher.Events {
		gestures = append(gestures, ev.Gesture)
	}
	want := []button.Gesture{button.GesturePress, button.GestureRelease, button.GestureLongPress}
	if len(gestures) != len(want) {
		t.Fatalf("expected %v, got %v", want, gestures)
	}
	for i, w := range want {
		if gestures[i] != w {
			t.Errorf("event %d: got %s, want %s", i, gestures[i], w)
		}
	}

	var long mqtt.Payload
	json.Unmarshal(publisher.Payloads[2], &long)
	if long.Button.Event != "LONG_PRESS" {
		t.Errorf("payload event: got %s", long.Button.Event)
	}
	if long.Button.HoldMs <= 1000 {
		t.Errorf("long press hold_ms: got %d, want > 1000", long.Button.HoldMs)
	}
}

// TestIntegrationChatterPublishesNothing feeds electrical noise and
// expects complete silence on the wire.
func TestIntegrationChatterPublishesNothing(t *testing.T) {
	reader := gpio.NewFakeReader(pattern("0101 1001 1001 0110 0101 1001 0"))
	publisher := mqtt.NewFakePublisher()
	btn := button.New(button.Config{})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	drive(t, reader, btn, publisher, start, 25)

	if len(publisher.Events) != 0 {
		t.Errorf("chatter produced %d published events", len(publisher.Events))
	}
	if btn.IsDown {
		t.Error("chatter flipped the debounced state")
	}
}

// TestIntegrationStatusSnapshot checks the tracker view after a gesture
// sequence, the way the HTTP endpoint sees it.
func TestIntegrationStatusSnapshot(t *testing.T) {
	reader := gpio.NewFakeReader(pattern("0000 11111 0"))
	btn := button.New(button.Config{})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tracker := status.NewTracker(start, status.Config{PollMs: 10, StableTicks: 3})

	for i := 0; i < 40; i++ {
		pressed, err := reader.Read()
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		btn.Tick(pressed)
		tracker.Update(btn.IsDown, btn.HoldMs, btn.Counts)
	}

	snap := tracker.Snapshot()
	if snap.Down {
		t.Error("expected button up at end of sequence")
	}
	if snap.Counts.Pressed != 1 || snap.Counts.Released != 1 || snap.Counts.ShortPress != 1 {
		t.Errorf("tracker counts: %+v", snap.Counts)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if parsed.Status.State != "UP" {
		t.Errorf("status state: got %s", parsed.Status.State)
	}
	if parsed.Status.Counts.ShortPress != 1 {
		t.Errorf("status counts: %+v", parsed.Status.Counts)
	}
}
