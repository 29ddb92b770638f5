// Package events publishes domain events (timesheet and review changes,
// broken-vehicle alerts, emailed reports) to an MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	TimesheetCreated = "timesheet.created"
	TimesheetUpdated = "timesheet.updated"
	TimesheetDeleted = "timesheet.deleted"
	ReviewCreated    = "review.created"
	ReviewUpdated    = "review.updated"
	ReviewDeleted    = "review.deleted"
	VehicleFlagged   = "vehicle.flagged"
	ReportEmailed    = "report.emailed"
)

// Event is the JSON payload sent for every domain change.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	TenantID   string                 `json:"tenant_id"`
	SubjectID  string                 `json:"subject_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType, tenantID, subjectID string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		SubjectID:  subjectID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, e Event) error {
	return nil
}

// Emit publishes e and logs failures instead of returning them. Events are
// advisory and must never fail the operation that produced them.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event_type": e.Type,
			"tenant_id":  e.TenantID,
			"subject_id": e.SubjectID,
		}).Warn("Failed to publish event")
	}
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Timeout     time.Duration
}

// MQTTPublisher publishes events as retained-free QoS 1 messages on
// <prefix>/<tenant>/<event type>.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt broker url is empty")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "fleetsheet-" + uuid.NewString()[:8]
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	return newMQTTPublisher(client, cfg.TopicPrefix, cfg.Timeout), nil
}

func newMQTTPublisher(client mqtt.Client, prefix string, timeout time.Duration) *MQTTPublisher {
	if prefix == "" {
		prefix = "fleetsheet"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTPublisher{client: client, prefix: strings.TrimSuffix(prefix, "/"), timeout: timeout}
}

// Topic returns the topic an event is published on.
func (p *MQTTPublisher) Topic(e Event) string {
	tenant := e.TenantID
	if tenant == "" {
		tenant = "_"
	}
	return p.prefix + "/" + tenant + "/" + e.Type
}

// Publish sends e and waits for the broker to acknowledge it.
func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	token := p.client.Publish(p.Topic(e), 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("mqtt publish timed out after %s", p.timeout)
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
