package mqtt

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seq(n int) []outbound {
	out := make([]outbound, n)
	for i := range out {
		out[i] = outbound{topic: Topic, payload: []byte{byte(i)}}
	}
	return out
}

func payloadBytes(msgs []outbound) []byte {
	var b []byte
	for _, m := range msgs {
		b = append(b, m.payload...)
	}
	return b
}

func TestOutboxKeepsNewest(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		push  int
		want  []byte
	}{
		{"empty", 4, 0, nil},
		{"partial", 4, 3, []byte{0, 1, 2}},
		{"exactly full", 4, 4, []byte{0, 1, 2, 3}},
		{"overflow drops oldest", 4, 7, []byte{3, 4, 5, 6}},
		{"zero limit keeps one", 0, 3, []byte{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOutbox(tt.limit, nil)
			for _, m := range seq(tt.push) {
				o.add(m)
			}
			if o.size() != len(tt.want) {
				t.Errorf("size: got %d, want %d", o.size(), len(tt.want))
			}
			got := payloadBytes(o.take())
			if string(got) != string(tt.want) {
				t.Errorf("take: got %v, want %v", got, tt.want)
			}
			if o.size() != 0 || o.take() != nil {
				t.Error("outbox should be empty after take")
			}
		})
	}
}

func TestOutboxReusableAfterTake(t *testing.T) {
	o := newOutbox(3, nil)
	for _, m := range seq(2) {
		o.add(m)
	}
	first := o.take()

	o.add(outbound{topic: Topic, payload: []byte{9}})
	if got := payloadBytes(o.take()); string(got) != string([]byte{9}) {
		t.Errorf("second take: got %v", got)
	}
	if got := payloadBytes(first); string(got) != string([]byte{0, 1}) {
		t.Errorf("first take was modified: got %v", got)
	}
}

func TestOutboxRetainedSupersedes(t *testing.T) {
	o := newOutbox(10, nil)
	o.add(outbound{topic: TopicSystem, payload: []byte("startup"), qos: 1, retained: true})
	o.add(outbound{topic: Topic, payload: []byte("alarm")})
	o.add(outbound{topic: TopicSystem, payload: []byte("heartbeat"), qos: 1})
	o.add(outbound{topic: TopicSystem, payload: []byte("shutdown"), qos: 1, retained: true})

	got := o.take()
	want := []string{"alarm", "heartbeat", "shutdown"}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i, w := range want {
		if string(got[i].payload) != w {
			t.Errorf("msg %d: got %s, want %s", i, got[i].payload, w)
		}
	}
	if last := got[2]; last.topic != TopicSystem || last.qos != 1 || !last.retained {
		t.Errorf("fields not preserved: %+v", last)
	}
}

func TestOutboxOverflowWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	o := newOutbox(2, zap.New(core).Sugar())

	for _, m := range seq(6) {
		o.add(m)
	}
	if n := logs.FilterMessage("outbox full, dropping oldest").Len(); n != 1 {
		t.Errorf("expected one overflow warning, got %d", n)
	}

	o.take()
	replays := logs.FilterMessage("replaying outbox after overflow").All()
	if len(replays) != 1 {
		t.Fatalf("expected one replay warning, got %d", len(replays))
	}
	if dropped := replays[0].ContextMap()["dropped"]; dropped != int64(4) {
		t.Errorf("expected 4 dropped, got %v", dropped)
	}

	for _, m := range seq(3) {
		o.add(m)
	}
	if n := logs.FilterMessage("outbox full, dropping oldest").Len(); n != 2 {
		t.Errorf("expected a second overflow warning, got %d", n)
	}
}

func TestOutboxRequeueGoesFirst(t *testing.T) {
	o := newOutbox(4, nil)
	taken := seq(3)
	o.add(outbound{topic: Topic, payload: []byte{7}})

	o.requeue(taken)
	if got := payloadBytes(o.take()); string(got) != string([]byte{0, 1, 2, 7}) {
		t.Errorf("got %v, want requeued messages ahead of newer ones", got)
	}
}

func TestOutboxRequeueRespectsLimit(t *testing.T) {
	o := newOutbox(3, nil)
	o.add(outbound{topic: Topic, payload: []byte{8}})
	o.add(outbound{topic: Topic, payload: []byte{9}})

	o.requeue(seq(3))
	if got := payloadBytes(o.take()); string(got) != string([]byte{2, 8, 9}) {
		t.Errorf("got %v, want the oldest evicted", got)
	}
}

func TestOutboxRequeueSkipsSupersededRetained(t *testing.T) {
	o := newOutbox(10, nil)
	o.add(outbound{topic: TopicSystem, payload: []byte("shutdown"), retained: true})

	o.requeue([]outbound{
		{topic: TopicSystem, payload: []byte("startup"), retained: true},
		{topic: Topic, payload: []byte("heat")},
	})

	got := o.take()
	if len(got) != 2 || string(got[0].payload) != "heat" || string(got[1].payload) != "shutdown" {
		t.Errorf("unexpected outbox contents %+v", got)
	}
}
