package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/mudra/internal/gesture"
)

// Command topics are relative to the sample topic.
const (
	CommitSuffix   = "/commit"
	FinalizeSuffix = "/finalize"
	ResultSuffix   = "/result"
)

// disconnectQuiesce is how long Disconnect waits for in-flight work, in ms.
const disconnectQuiesce = 250

// MQTTOptions configures an MQTTSource.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

// samplePayload is the JSON body of a sample message. Timestamp is optional.
type samplePayload struct {
	Timestamp *int64   `json:"ts"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Z         *float64 `json:"z"`
}

// ResultPayload is published on the result topic after every finalized gesture.
type ResultPayload struct {
	Result string   `json:"result"`
	Cost   *float64 `json:"cost"`
}

// publisher is the part of mqtt.Client used to publish results.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSource subscribes to a sample topic and its command topics.
type MQTTSource struct {
	opts   MQTTOptions
	sink   Sink
	ctrl   Controller
	now    func() time.Time

	mu     sync.Mutex
	client mqtt.Client
	pub    publisher
}

// NewMQTTSource creates a source that feeds sink and sends commands to ctrl.
// ctrl may be nil, in which case command topics are not subscribed.
func NewMQTTSource(opts MQTTOptions, sink Sink, ctrl Controller) *MQTTSource {
	return &MQTTSource{
		opts: opts,
		sink: sink,
		ctrl: ctrl,
		now:  time.Now,
	}
}

// Topic returns the sample topic.
func (s *MQTTSource) Topic() string {
	return s.opts.Topic
}

// Start connects to the broker and subscribes to the sample and command topics.
func (s *MQTTSource) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.opts.Broker).
		SetClientID(s.opts.ClientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", s.opts.Broker, token.Error())
	}
	log.Printf("ingest: connected to MQTT broker at %s", s.opts.Broker)

	subs := map[string]mqtt.MessageHandler{
		s.opts.Topic: func(_ mqtt.Client, msg mqtt.Message) { s.handleSample(msg) },
	}
	if s.ctrl != nil {
		subs[s.opts.Topic+CommitSuffix] = func(_ mqtt.Client, msg mqtt.Message) { s.handleCommit(msg) }
		subs[s.opts.Topic+FinalizeSuffix] = func(_ mqtt.Client, msg mqtt.Message) { s.handleFinalize(msg) }
	}

	for topic, handler := range subs {
		token := client.Subscribe(topic, s.opts.QoS, handler)
		token.Wait()
		if token.Error() != nil {
			client.Disconnect(disconnectQuiesce)
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("ingest: subscribed to %s", topic)
	}

	s.mu.Lock()
	s.client = client
	s.pub = client
	s.mu.Unlock()
	return nil
}

// Stop disconnects from the broker. Results published afterwards are dropped.
func (s *MQTTSource) Stop() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.pub = nil
	s.mu.Unlock()

	if client != nil {
		client.Disconnect(disconnectQuiesce)
		log.Println("ingest: disconnected from MQTT broker")
	}
}

func (s *MQTTSource) currentPublisher() publisher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pub
}

// PublishResult publishes a verdict on the result topic. It is a no-op
// while disconnected. It may be called concurrently with Stop.
func (s *MQTTSource) PublishResult(result gesture.Result, cost *float64) error {
	pub := s.currentPublisher()
	if pub == nil {
		return nil
	}

	payload, err := json.Marshal(ResultPayload{Result: result.String(), Cost: cost})
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	topic := s.opts.Topic + ResultSuffix
	if token := pub.Publish(topic, s.opts.QoS, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

func (s *MQTTSource) handleSample(msg mqtt.Message) {
	sample, err := decodeSample(msg.Payload(), s.now())
	if err != nil {
		log.Printf("ingest: %s: %v", msg.Topic(), err)
		return
	}
	feed(s.sink, sample)
}

func (s *MQTTSource) handleCommit(mqtt.Message) {
	if !s.ctrl.CommitAsReference() {
		log.Println("ingest: commit requested with no gesture in progress")
	}
}

func (s *MQTTSource) handleFinalize(mqtt.Message) {
	result := s.ctrl.FinalizeAndMatch()
	log.Printf("ingest: finalize requested: %s", result)
}

// decodeSample parses a JSON sample, stamping it with now when it has no
// timestamp.
func decodeSample(data []byte, now time.Time) (gesture.Sample, error) {
	var p samplePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return gesture.Sample{}, fmt.Errorf("sample unmarshal error: %w", err)
	}
	if p.X == nil || p.Y == nil || p.Z == nil {
		return gesture.Sample{}, errors.New("sample is missing an axis")
	}

	s := gesture.Sample{X: *p.X, Y: *p.Y, Z: *p.Z}
	if p.Timestamp != nil {
		s.Timestamp = *p.Timestamp
	} else {
		s.Timestamp = now.UnixMilli()
	}
	return s, nil
}
