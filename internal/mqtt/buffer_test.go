package mqtt

import (
	"fmt"
	"testing"
)

func msg(i int) queuedMsg {
	return queuedMsg{topic: Topic, payload: []byte(fmt.Sprintf("m%d", i))}
}

func TestMsgBufferPushDrain(t *testing.T) {
	b := newMsgBuffer(4)

	if b.len() != 0 {
		t.Fatalf("new buffer not empty: %d", b.len())
	}
	if got := b.drainAll(); got != nil {
		t.Fatalf("drain of empty buffer: %v", got)
	}

	b.push(msg(0))
	b.push(msg(1))
	b.push(msg(2))
	if b.len() != 3 {
		t.Fatalf("expected len 3, got %d", b.len())
	}

	got := b.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if string(m.payload) != fmt.Sprintf("m%d", i) {
			t.Errorf("message %d out of order: %s", i, m.payload)
		}
	}
	if b.len() != 0 {
		t.Errorf("buffer not empty after drain: %d", b.len())
	}
}

func TestMsgBufferOverwritesOldest(t *testing.T) {
	b := newMsgBuffer(3)

	for i := 0; i < 5; i++ {
		b.push(msg(i))
	}
	if b.len() != 3 {
		t.Fatalf("expected len capped at 3, got %d", b.len())
	}

	got := b.drainAll()
	want := []string{"m2", "m3", "m4"}
	for i, w := range want {
		if string(got[i].payload) != w {
			t.Errorf("message %d: got %s, want %s", i, got[i].payload, w)
		}
	}
}

func TestMsgBufferReusableAfterDrain(t *testing.T) {
	b := newMsgBuffer(2)

	b.push(msg(0))
	b.push(msg(1))
	b.push(msg(2)) // drops m0
	b.drainAll()

	b.push(msg(7))
	got := b.drainAll()
	if len(got) != 1 || string(got[0].payload) != "m7" {
		t.Errorf("buffer not reusable after overflow+drain: %v", got)
	}
}

func TestMsgBufferPreservesFields(t *testing.T) {
	b := newMsgBuffer(2)
	b.push(queuedMsg{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	got := b.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
