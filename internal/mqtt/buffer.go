package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// msgBuffer is a fixed-capacity FIFO that holds messages while the broker
// is unreachable. When full, the oldest message is overwritten.
// Not safe for concurrent use — caller must synchronize.
type msgBuffer struct {
	buf      []queuedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  bool // true if any message was lost since last drain
}

func newMsgBuffer(capacity int) *msgBuffer {
	return &msgBuffer{
		buf:      make([]queuedMsg, capacity),
		capacity: capacity,
	}
}

func (m *msgBuffer) push(msg queuedMsg) {
	if m.count == m.capacity {
		if !m.dropped {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", m.capacity)
			m.dropped = true
		}
		// head already points at the oldest entry
		m.buf[m.head] = msg
		m.head = (m.head + 1) % m.capacity
		return
	}
	m.buf[m.head] = msg
	m.head = (m.head + 1) % m.capacity
	m.count++
}

// drainAll returns the buffered messages oldest-first and empties the buffer.
func (m *msgBuffer) drainAll() []queuedMsg {
	if m.count == 0 {
		return nil
	}

	result := make([]queuedMsg, m.count)
	start := (m.head - m.count + m.capacity) % m.capacity
	for i := 0; i < m.count; i++ {
		result[i] = m.buf[(start+i)%m.capacity]
	}

	m.count = 0
	m.head = 0
	m.dropped = false
	return result
}

func (m *msgBuffer) len() int {
	return m.count
}
