package amqp

import (
	"encoding/json"
	"time"
)

const (
	KindReceiptIssued  = "receipt.issued"
	KindReceiptDeleted = "receipt.deleted"
)

// Envelope wraps every message on the ledger queue. Payloads are
// intentionally thin: the worker fetches the full row from the receipt log
// by LogID, so a stale message can never carry stale receipt data.
type Envelope struct {
	Kind      string    `json:"kind"`
	LogID     int64     `json:"logId,omitempty"`
	ReceiptID int64     `json:"receiptId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReceiptIssued builds an issued event referencing a receipt-log row.
func NewReceiptIssued(logID, receiptID int64) *Envelope {
	return &Envelope{
		Kind:      KindReceiptIssued,
		LogID:     logID,
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

// NewReceiptDeleted builds a deleted event for a backend-side receipt id.
func NewReceiptDeleted(receiptID int64) *Envelope {
	return &Envelope{
		Kind:      KindReceiptDeleted,
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
