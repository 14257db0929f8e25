package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/router"
)

// OutboundMessage is one reply for the chat gateway to deliver.
type OutboundMessage struct {
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewOutboundMessage(conversationID, text string) *OutboundMessage {
	return &OutboundMessage{
		ConversationID: conversationID,
		Text:           text,
		Timestamp:      time.Now(),
	}
}

func (m *OutboundMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerRecordedMessage announces a persisted ledger entry. It carries the
// full row so consumers never read the database.
type LedgerRecordedMessage struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Type      core.EntryType  `json:"type"`
	Category  string          `json:"category"`
	Note      string          `json:"note"`
	Date      time.Time       `json:"date"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewLedgerRecordedMessage(e core.LedgerEntry, category string) *LedgerRecordedMessage {
	return &LedgerRecordedMessage{
		ID:        e.ID,
		UserID:    e.UserID,
		Amount:    e.Amount,
		Type:      e.Type,
		Category:  category,
		Note:      e.Note,
		Date:      e.Date,
		Timestamp: time.Now(),
	}
}

func (m *LedgerRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerRecordedMessageFromJSON(data []byte) (*LedgerRecordedMessage, error) {
	var msg LedgerRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// InboundMessageFromJSON decodes a chat message published by the gateway.
func InboundMessageFromJSON(data []byte) (router.Message, error) {
	var msg router.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return router.Message{}, err
	}
	return msg, nil
}
