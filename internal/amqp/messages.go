package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExportRequestMessage asks the export worker to render a report PDF.
// It carries only the selection; the worker reads the ledger itself.
type ExportRequestMessage struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"business_id"`
	BookIDs     []string  `json:"book_ids,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Type        string    `json:"type,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	RequestedBy string    `json:"requested_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExportRequestMessage creates a request with a fresh id for a business.
func NewExportRequestMessage(businessID, requestedBy string) *ExportRequestMessage {
	return &ExportRequestMessage{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		RequestedBy: requestedBy,
		Timestamp:   time.Now(),
	}
}

// Validate checks the fields the worker cannot do without.
func (m *ExportRequestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("export request: missing id")
	}
	if m.BusinessID == "" {
		return errors.New("export request: missing business id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestMessageFromJSON creates a message from JSON bytes
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
