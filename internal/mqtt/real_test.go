package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/home-automaton/internal/logic"
)

// fakeToken completes with err, after gate is closed when one is set.
type fakeToken struct {
	err     error
	timeout bool
	gate    chan struct{}
}

func (t *fakeToken) Wait() bool { return t.WaitTimeout(0) }

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	if t.gate != nil {
		<-t.gate
	}
	return !t.timeout
}

func (t *fakeToken) Error() error { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type sentMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of paho.Client the publisher uses.
type fakeClient struct {
	paho.Client

	mu           sync.Mutex
	open         bool
	publishErr   error
	timeout      bool
	gate         chan struct{}
	sent         []sentMsg
	disconnected bool
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr == nil && !c.timeout {
		c.sent = append(c.sent, sentMsg{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	}
	return &fakeToken{err: c.publishErr, timeout: c.timeout, gate: c.gate}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *fakeClient) fail(err error, timeout bool) {
	c.mu.Lock()
	c.publishErr, c.timeout = err, timeout
	c.mu.Unlock()
}

func (c *fakeClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeClient) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, m := range c.sent {
		out[i] = m.topic
	}
	return out
}

func TestRealPublisherPublishesWhenConnected(t *testing.T) {
	c := &fakeClient{open: true}
	p := newPublisherWithClient(c, 10, nil)

	if err := p.Publish(logic.Event{Type: logic.EventAlarmOn}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Buffered() != 2 {
		t.Fatalf("expected 2 queued before the sender runs, got %d", p.Buffered())
	}

	p.flush()

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.sent))
	}
	if c.sent[0].topic != Topic || c.sent[0].qos != 0 || c.sent[0].retained {
		t.Errorf("unexpected event message: %+v", c.sent[0])
	}
	if c.sent[1].topic != TopicSystem || c.sent[1].qos != 1 || !c.sent[1].retained {
		t.Errorf("unexpected system message: %+v", c.sent[1])
	}
	if p.Buffered() != 0 {
		t.Errorf("expected nothing queued, got %d", p.Buffered())
	}
	if !p.IsConnected() {
		t.Error("expected connected")
	}
}

func TestRealPublisherHoldsWhileDisconnected(t *testing.T) {
	c := &fakeClient{}
	p := newPublisherWithClient(c, 10, nil)

	for _, typ := range []logic.EventType{logic.EventAlarmOn, logic.EventHeatOn, logic.EventAlarmOff} {
		if err := p.Publish(logic.Event{Type: typ}); err != nil {
			t.Fatalf("queued publish should not fail: %v", err)
		}
	}
	p.flush()
	if p.Buffered() != 3 {
		t.Fatalf("expected 3 queued, got %d", p.Buffered())
	}
	if c.count() != 0 {
		t.Fatal("nothing should be sent while disconnected")
	}

	// First connect: replay without a RECONNECTED marker.
	c.setOpen(true)
	p.onConnect(c)
	p.flush()

	if p.Buffered() != 0 {
		t.Errorf("expected empty outbox, got %d", p.Buffered())
	}
	if got := c.topics(); len(got) != 3 {
		t.Fatalf("expected 3 replayed messages, got %v", got)
	}
}

func TestRealPublisherReconnectAnnouncesFirst(t *testing.T) {
	c := &fakeClient{open: true}
	p := newPublisherWithClient(c, 10, nil)
	p.onConnect(c)

	c.setOpen(false)
	p.Publish(logic.Event{Type: logic.EventHeatOff})

	c.setOpen(true)
	p.onConnect(c)
	p.flush()

	got := c.topics()
	if len(got) != 2 || got[0] != TopicSystem || got[1] != Topic {
		t.Fatalf("expected RECONNECTED then the queued event, got %v", got)
	}
}

func TestRealPublisherFailedSendKeepsOrder(t *testing.T) {
	c := &fakeClient{open: true}
	p := newPublisherWithClient(c, 10, nil)

	c.fail(errors.New("nack"), false)
	p.Publish(logic.Event{Type: logic.EventAlarmOn})
	p.flush()
	if p.Buffered() != 1 {
		t.Fatalf("expected the failed message to stay queued, got %d", p.Buffered())
	}

	c.fail(nil, true)
	p.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	p.flush()
	if p.Buffered() != 2 {
		t.Fatalf("expected 2 queued after a timeout, got %d", p.Buffered())
	}

	c.fail(nil, false)
	p.Publish(logic.Event{Type: logic.EventAlarmOff})
	p.flush()

	got := c.topics()
	want := []string{Topic, TopicSystem, Topic}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRealPublisherSendErrorWrapsTimeout(t *testing.T) {
	c := &fakeClient{open: true, timeout: true}
	p := newPublisherWithClient(c, 10, nil)

	if err := p.send(outbound{topic: Topic}); !errors.Is(err, errPublishTimeout) {
		t.Errorf("expected timeout error, got %v", err)
	}
}

// A broker that does not acknowledge must not hold up callers.
func TestRealPublisherPublishDoesNotWaitForBroker(t *testing.T) {
	gate := make(chan struct{})
	c := &fakeClient{open: true, gate: gate}
	p := newPublisherWithClient(c, 10, nil)
	p.start()

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			p.Publish(logic.Event{Type: logic.EventHeatOn})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on an unacknowledged send")
	}

	close(gate)
	deadline := time.Now().Add(2 * time.Second)
	for p.Buffered() != 0 || c.count() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 delivered, got %d sent and %d queued", c.count(), p.Buffered())
		}
		p.kick()
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRealPublisherCloseFlushesAndDisconnects(t *testing.T) {
	c := &fakeClient{open: true}
	p := newPublisherWithClient(c, 10, nil)
	p.start()

	p.PublishSystem(SystemEvent{Event: "SHUTDOWN", Retained: true})
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.count() != 1 {
		t.Errorf("expected SHUTDOWN delivered before disconnect, got %d sent", c.count())
	}
	if !c.disconnected {
		t.Error("expected Disconnect to be called")
	}
	if err := p.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
