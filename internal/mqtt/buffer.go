package mqtt

import "go.uber.org/zap"

// outbound is a serialized message waiting for the broker.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// supersedes reports whether m makes the queued message old pointless: the
// broker keeps only the last retained message per topic.
func (m outbound) supersedes(old outbound) bool {
	return m.retained && old.retained && m.topic == old.topic
}

// outbox holds messages published while the connection is down, oldest
// first, up to a fixed limit. Callers synchronize.
type outbox struct {
	msgs    []outbound
	limit   int
	dropped int
	log     *zap.SugaredLogger
}

func newOutbox(limit int, log *zap.SugaredLogger) *outbox {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &outbox{
		msgs:  make([]outbound, 0, limit),
		limit: limit,
		log:   log,
	}
}

// add queues m. A retained message replaces an older retained one on the
// same topic; otherwise a full outbox evicts its oldest entry.
func (o *outbox) add(m outbound) {
	for i := range o.msgs {
		if m.supersedes(o.msgs[i]) {
			o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
			break
		}
	}

	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			o.log.Warnw("outbox full, dropping oldest", "limit", o.limit)
		}
		o.dropped++
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
	}

	o.msgs = append(o.msgs, m)
}

// requeue puts msgs back in front of everything queued since they were
// taken. A retained message already superseded by a queued one is skipped,
// and the oldest entries are evicted past the limit.
func (o *outbox) requeue(msgs []outbound) {
	merged := make([]outbound, 0, len(msgs)+len(o.msgs))
	for _, m := range msgs {
		superseded := false
		for _, newer := range o.msgs {
			if newer.supersedes(m) {
				superseded = true
				break
			}
		}
		if !superseded {
			merged = append(merged, m)
		}
	}
	merged = append(merged, o.msgs...)

	if over := len(merged) - o.limit; over > 0 {
		if o.dropped == 0 {
			o.log.Warnw("outbox full, dropping oldest", "limit", o.limit)
		}
		o.dropped += over
		merged = merged[over:]
	}
	o.msgs = merged
}

// take empties the outbox and returns its contents in publish order.
func (o *outbox) take() []outbound {
	if len(o.msgs) == 0 {
		return nil
	}

	out := make([]outbound, len(o.msgs))
	copy(out, o.msgs)
	o.msgs = o.msgs[:0]

	if o.dropped > 0 {
		o.log.Warnw("replaying outbox after overflow", "dropped", o.dropped, "kept", len(out))
		o.dropped = 0
	}
	return out
}

func (o *outbox) size() int {
	return len(o.msgs)
}
