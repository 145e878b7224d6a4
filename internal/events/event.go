package events

import (
	"encoding/json"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/google/uuid"
)

// Event is one checkout milestone.
type Event struct {
	ID         string                  `json:"event_id"`
	Type       enums.CheckoutEventType `json:"event_type"`
	SessionID  string                  `json:"session_id,omitempty"`
	UserID     string                  `json:"user_id,omitempty"`
	OrderID    string                  `json:"order_id,omitempty"`
	PaymentID  string                  `json:"payment_id,omitempty"`
	Status     string                  `json:"status,omitempty"`
	Stage      string                  `json:"stage,omitempty"`
	Amount     *float64                `json:"amount,omitempty"`
	Attrs      map[string]any          `json:"attrs,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(eventType enums.CheckoutEventType) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// Row is the BigQuery shape of an Event.
type Row struct {
	EventID    string                `bigquery:"event_id"`
	EventType  string                `bigquery:"event_type"`
	SessionID  cbigquery.NullString  `bigquery:"session_id"`
	UserID     cbigquery.NullString  `bigquery:"user_id"`
	OrderID    cbigquery.NullString  `bigquery:"order_id"`
	PaymentID  cbigquery.NullString  `bigquery:"payment_id"`
	Status     cbigquery.NullString  `bigquery:"status"`
	Stage      cbigquery.NullString  `bigquery:"stage"`
	Amount     cbigquery.NullFloat64 `bigquery:"amount"`
	Attrs      cbigquery.NullJSON    `bigquery:"attrs"`
	OccurredAt time.Time             `bigquery:"occurred_at"`
}

func (e Event) Row() (Row, error) {
	row := Row{
		EventID:    e.ID,
		EventType:  e.Type.String(),
		SessionID:  nullString(e.SessionID),
		UserID:     nullString(e.UserID),
		OrderID:    nullString(e.OrderID),
		PaymentID:  nullString(e.PaymentID),
		Status:     nullString(e.Status),
		Stage:      nullString(e.Stage),
		OccurredAt: e.OccurredAt,
	}
	if e.Amount != nil {
		row.Amount = cbigquery.NullFloat64{Float64: *e.Amount, Valid: true}
	}
	if len(e.Attrs) > 0 {
		raw, err := json.Marshal(e.Attrs)
		if err != nil {
			return Row{}, fmt.Errorf("marshal event attrs: %w", err)
		}
		row.Attrs = cbigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}

// Save implements bigquery.ValueSaver. The event id doubles as the insert
// id so a retried streaming insert does not duplicate the milestone.
func (r *Row) Save() (map[string]cbigquery.Value, string, error) {
	saver := &cbigquery.StructSaver{Struct: r, InsertID: r.EventID}
	return saver.Save()
}

func nullString(v string) cbigquery.NullString {
	if v == "" {
		return cbigquery.NullString{}
	}
	return cbigquery.NullString{StringVal: v, Valid: true}
}
