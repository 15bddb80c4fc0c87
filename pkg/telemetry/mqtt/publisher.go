package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/dap.go/pkg/fw/dcm"
)

// Publisher is the part of Queue used for publishing.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// DefaultPublishTimeout bounds waiting for the broker to accept a message.
const DefaultPublishTimeout = 5 * time.Second

// Topic names under <host-id>/dcm/.
const (
	TopicDump    = "dump"
	TopicMeta    = "meta"
	TopicOnline  = "online"
	TopicTrigger = "trigger"
)

// DumpMeta describes a published dump.
type DumpMeta struct {
	Host  string    `json:"host"`
	Port  string    `json:"port"`
	Seq   uint64    `json:"seq"`
	Words int       `json:"words"`
	Time  time.Time `json:"time"`
}

// DumpPublisher publishes DCM dumps of one host: the raw little-endian
// words to <host-id>/dcm/dump followed by a JSON DumpMeta to
// <host-id>/dcm/meta.
type DumpPublisher struct {
	Publisher Publisher
	HostID    string
	Port      string
	QoS       byte
	Timeout   time.Duration

	seq uint64
}

// NewDumpPublisher creates a DumpPublisher.
func NewDumpPublisher(pub Publisher, hostID, port string) *DumpPublisher {
	return &DumpPublisher{
		Publisher: pub,
		HostID:    hostID,
		Port:      port,
		QoS:       1,
		Timeout:   DefaultPublishTimeout,
	}
}

// Topic returns the relative topic of name.
func (p *DumpPublisher) Topic(name string) string {
	return TopicOf(p.HostID, name)
}

// TopicOf returns the relative topic of name for hostID.
func TopicOf(hostID, name string) string {
	return hostID + "/dcm/" + name
}

// Publish publishes a dump taken at the specified time.
func (p *DumpPublisher) Publish(words []uint32, at time.Time) (*DumpMeta, error) {
	var buf bytes.Buffer
	buf.Grow(len(words) * 4)
	if err := dcm.WriteWords(&buf, words); err != nil {
		return nil, err
	}
	meta := &DumpMeta{
		Host:  p.HostID,
		Port:  p.Port,
		Seq:   atomic.AddUint64(&p.seq, 1),
		Words: len(words),
		Time:  at.UTC(),
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	if err = p.publish(TopicDump, buf.Bytes(), false); err != nil {
		return nil, err
	}
	if err = p.publish(TopicMeta, encoded, true); err != nil {
		return nil, err
	}
	return meta, nil
}

// SetOnline publishes the retained online flag, "1" or "0".
func (p *DumpPublisher) SetOnline(online bool) error {
	payload := []byte("0")
	if online {
		payload = []byte("1")
	}
	return p.publish(TopicOnline, payload, true)
}

func (p *DumpPublisher) publish(name string, payload []byte, retain bool) error {
	topic := p.Topic(name)
	token := p.Publisher.PubWith(topic, payload, p.QoS, retain)
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// SetWill registers the retained offline flag of hostID as the will of
// the client. prefix is the topic prefix of the Queue.
func SetWill(opts *paho.ClientOptions, prefix, hostID string) {
	opts.SetBinaryWill(prefix+TopicOf(hostID, TopicOnline), []byte("0"), 1, true)
}
