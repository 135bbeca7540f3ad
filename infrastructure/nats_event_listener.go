package infrastructure

import (
	"encoding/json"
	"fmt"

	"stakearena/domain/events"

	log "github.com/sirupsen/logrus"
)

// SettlementListener consumes the settlement and dispute subjects off the
// domain event stream and writes an operator-facing audit line for each. It
// stands in for downstream consumers (notification or analytics services)
// that attach to the same durable stream.
type SettlementListener struct {
	natsClient *NATSClient
}

// NewSettlementListener creates a listener bound to a connected NATS client
func NewSettlementListener(natsClient *NATSClient) *SettlementListener {
	return &SettlementListener{natsClient: natsClient}
}

// Start registers the durable consumers. Handler errors NAK the message so
// JetStream redelivers it up to the configured max.
func (l *SettlementListener) Start() error {
	if !l.natsClient.IsConnected() {
		return fmt.Errorf("cannot start settlement listener: not connected to NATS")
	}

	if err := l.natsClient.Subscribe("matches.settled", l.handleMatchSettled); err != nil {
		return err
	}
	if err := l.natsClient.Subscribe("disputes.opened", l.handleDisputeOpened); err != nil {
		return err
	}
	return nil
}

func (l *SettlementListener) handleMatchSettled(data []byte) error {
	var event events.MatchSettledEvent
	if err := decodeEnvelope(data, events.EventTypeMatchSettled, &event); err != nil {
		return err
	}

	fields := log.Fields{
		"matchID": event.MatchID,
		"gameID":  event.GameID,
		"status":  event.Status,
	}
	if event.WinnerSide != nil {
		fields["winnerSide"] = *event.WinnerSide
	}
	log.WithFields(fields).Info("Match settled")
	return nil
}

func (l *SettlementListener) handleDisputeOpened(data []byte) error {
	var event events.DisputeOpenedEvent
	if err := decodeEnvelope(data, events.EventTypeDisputeOpened, &event); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"matchID":     event.MatchID,
		"initiatorID": event.InitiatorID,
		"deadline":    event.Deadline,
	}).Warn("Dispute opened")
	return nil
}

// decodeEnvelope unwraps a published event envelope and unmarshals its
// payload, rejecting envelopes carrying a different event type
func decodeEnvelope(data []byte, want events.EventType, out any) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if envelope.EventType != string(want) {
		return fmt.Errorf("unexpected event type %q on subject for %q", envelope.EventType, want)
	}
	if err := json.Unmarshal(envelope.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", want, err)
	}
	return nil
}
