package mqtt

import "log"

// queuedMsg is a serialized MQTT message held for replay after reconnect.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue holds messages that could not be sent while the broker was
// unreachable. Bounded: once full, the oldest message is dropped for each
// new one. Not safe for concurrent use; the publisher synchronizes.
type replayQueue struct {
	msgs    []queuedMsg
	limit   int
	dropped int // messages lost since the last drain
}

func newReplayQueue(limit int) *replayQueue {
	return &replayQueue{limit: limit}
}

func (q *replayQueue) add(msg queuedMsg) {
	if len(q.msgs) >= q.limit {
		if q.dropped == 0 {
			log.Printf("mqtt: replay queue full (%d messages), dropping oldest", q.limit)
		}
		q.dropped++
		q.msgs = q.msgs[1:]
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns all queued messages in arrival order and empties the queue.
func (q *replayQueue) drain() []queuedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	if q.dropped > 0 {
		log.Printf("mqtt: replaying %d messages (%d lost while disconnected)", len(out), q.dropped)
		q.dropped = 0
	}
	return out
}

func (q *replayQueue) len() int {
	return len(q.msgs)
}
