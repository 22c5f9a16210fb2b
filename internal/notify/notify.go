// Package notify is the Outcome/Notification Gateway (C7): after a
// ledger append attributable to a scenario, it emits exactly one
// "scenario-closed-for-user" event to an external sink. Emission is
// at-least-once; downstream consumers deduplicate by EntryID (§4.7).
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/coursesim/simcore/internal/domain"
)

// EventScenarioClosedForUser is the sole event kind this gateway emits.
const EventScenarioClosedForUser = "scenario-closed-for-user"

// Event is the notification payload: (entryId, scenarioId, userId, netProfit).
type Event struct {
	EventKind  string `json:"eventKind"`
	EntryID    string `json:"entryId"`
	ScenarioID string `json:"scenarioId"`
	UserID     string `json:"userId"`
	NetProfit  string `json:"netProfit"`
}

// NotificationSink is the narrow capability interface the gateway depends
// on (§9: "polymorphism over capabilities, not inheritance"). Concrete
// implementations in this package adapt it onto the shared JobQueue
// abstraction or onto a direct HTTP webhook.
type NotificationSink interface {
	Notify(ctx context.Context, event Event) error
}

// Gateway turns a successful ledger append into exactly one Event, handed
// to sink. It is deliberately stateless beyond its sink and logger — the
// entryId-based dedup the spec asks for is a downstream-consumer concern,
// not this gateway's.
type Gateway struct {
	sink NotificationSink
	log  zerolog.Logger
}

func New(sink NotificationSink, log zerolog.Logger) *Gateway {
	return &Gateway{sink: sink, log: log}
}

// NotifyLedgerEntry emits a scenario-closed-for-user event for entry, if
// entry is attributable to a scenario. The seed entry (ScenarioID nil) is
// silently skipped — it isn't a simulation outcome.
func (g *Gateway) NotifyLedgerEntry(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.ScenarioID == nil {
		return nil
	}

	event := Event{
		EventKind:  EventScenarioClosedForUser,
		EntryID:    entry.ID.String(),
		ScenarioID: entry.ScenarioID.String(),
		UserID:     entry.UserID.String(),
		NetProfit:  entry.NetProfit.String(),
	}

	if err := g.sink.Notify(ctx, event); err != nil {
		g.log.Warn().Str("entry", event.EntryID).Str("scenario", event.ScenarioID).Err(err).Msg("notification emission failed")
		return err
	}
	return nil
}
