// Package bus carries rule-catalog change notifications between the rule API
// and the poller over NATS. The poller subscribes and logs each event; it
// does not reload its catalog on receipt, since every tick loads it afresh.
package bus

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// RuleEvent is the payload published on rule.created / rule.updated.
type RuleEvent struct {
	RuleID string `json:"ruleId"`
}

const (
	SubjectRuleCreated = "rule.created"
	SubjectRuleUpdated = "rule.updated"
)

// Publisher publishes rule-catalog change events.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to the NATS server at url.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}

// Publish sends evt on subject.
func (p *Publisher) Publish(subject string, evt RuleEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Subscriber receives rule-catalog change events.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber connects to the NATS server at url.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn}, nil
}

// Close drains and closes the underlying connection.
func (s *Subscriber) Close() {
	if s.conn != nil {
		s.conn.Drain()
		s.conn.Close()
	}
}

// Subscribe registers handler on subject. Malformed payloads are dropped.
func (s *Subscriber) Subscribe(subject string, handler func(RuleEvent)) (*nats.Subscription, error) {
	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		var evt RuleEvent
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			return
		}
		handler(evt)
	})
}
