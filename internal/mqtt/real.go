package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/home-automaton/internal/logic"
)

const (
	connectRetryInterval = 5 * time.Second
	publishTimeout       = 5 * time.Second
	disconnectQuiesceMs  = 1000
)

// errPublishTimeout is returned when the broker does not acknowledge in time.
var errPublishTimeout = errors.New("publish timeout")

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int
	Log        *zap.SugaredLogger
}

// RealPublisher publishes to an actual MQTT broker.
//
// Publish and PublishSystem only queue the message and return. A sender
// goroutine owns the broker round trips, so a slow or unreachable broker
// never stalls the polling loop. Messages that cannot be delivered stay
// queued until the next publish or reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger

	mu     sync.Mutex
	outbox *outbox
	// connectedOnce distinguishes the first connect from reconnects.
	connectedOnce bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	closeOnce sync.Once
}

// NewRealPublisher creates a publisher, starts its sender and starts
// connecting in the background. The broker does not need to be reachable yet.
func NewRealPublisher(o Options) *RealPublisher {
	p := newPublisher(nil, o.BufferSize, o.Log)

	lwt, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "LWT"})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetBinaryWill(TopicSystem, lwt, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.start()
	p.client.Connect()

	return p
}

// newPublisherWithClient wires an existing client without starting the
// sender; callers drive delivery with flush.
func newPublisherWithClient(client paho.Client, bufferSize int, log *zap.SugaredLogger) *RealPublisher {
	return newPublisher(client, bufferSize, log)
}

func newPublisher(client paho.Client, bufferSize int, log *zap.SugaredLogger) *RealPublisher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RealPublisher{
		client: client,
		log:    log,
		outbox: newOutbox(bufferSize, log),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

func (p *RealPublisher) start() {
	p.done = make(chan struct{})
	go p.run()
}

func (p *RealPublisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
			p.flush()
		}
	}
}

// kick asks the sender to flush. Never blocks.
func (p *RealPublisher) kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// flush sends every queued message in order. On the first failure the
// unsent tail goes back to the front of the outbox.
func (p *RealPublisher) flush() {
	if !p.client.IsConnectionOpen() {
		return
	}

	p.mu.Lock()
	pending := p.outbox.take()
	p.mu.Unlock()

	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			p.log.Warnw("publish failed, keeping queued", "topic", msg.topic, "queued", len(pending)-i, "error", err)
			p.mu.Lock()
			p.outbox.requeue(pending[i:])
			p.mu.Unlock()
			return
		}
	}
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connectedOnce
	p.connectedOnce = true
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.outbox.requeue([]outbound{{topic: TopicSystem, payload: payload, qos: 1}})
	}
	queued := p.outbox.size()
	p.mu.Unlock()

	if reconnect {
		p.log.Infow("reconnected to broker", "queued", queued)
	} else {
		p.log.Infow("connected to broker", "queued", queued)
	}
	p.kick()
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.Warnw("connection to broker lost", "error", err)
}

func (p *RealPublisher) send(msg outbound) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

func (p *RealPublisher) enqueue(msg outbound) {
	p.mu.Lock()
	p.outbox.add(msg)
	p.mu.Unlock()
	p.kick()
}

// Publish queues a transition event for the broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.enqueue(outbound{topic: Topic, payload: payload})
	return nil
}

// PublishSystem queues a system lifecycle event for the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	p.enqueue(outbound{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages not yet delivered.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.size()
}

// Close stops the sender, makes a last delivery attempt so the SHUTDOWN
// event gets out, and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		if p.done != nil {
			<-p.done
		}
		p.flush()
		p.client.Disconnect(disconnectQuiesceMs)
	})
	return nil
}
