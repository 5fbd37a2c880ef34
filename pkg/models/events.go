package models

import "encoding/json"

// Event log shapes follow the NEP-171 event standard so downstream indexers
// can consume them unchanged.
const (
	EventStandard = "nep171"
	EventVersion  = "1.0.0"

	EventNftMint     = "nft_mint"
	EventNftTransfer = "nft_transfer"
)

type EventLog struct {
	Standard string          `json:"standard"`
	Version  string          `json:"version"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

type MintEventData struct {
	OwnerID  AccountID `json:"owner_id"`
	TokenIDs []TokenID `json:"token_ids"`
}

// TransferEventData records an ownership change. A rollback emits the same
// shape with old and new swapped back and Reversal set.
type TransferEventData struct {
	AuthorizedID AccountID `json:"authorized_id,omitempty"`
	OldOwnerID   AccountID `json:"old_owner_id"`
	NewOwnerID   AccountID `json:"new_owner_id"`
	TokenIDs     []TokenID `json:"token_ids"`
	Memo         string    `json:"memo,omitempty"`
	Reversal     bool      `json:"reversal,omitempty"`
}

func NewMintEvent(data MintEventData) EventLog {
	return newEvent(EventNftMint, data)
}

func NewTransferEvent(data TransferEventData) EventLog {
	return newEvent(EventNftTransfer, data)
}

func newEvent(name string, data any) EventLog {
	raw, err := json.Marshal([]any{data})
	if err != nil {
		raw = []byte("[]")
	}
	return EventLog{
		Standard: EventStandard,
		Version:  EventVersion,
		Event:    name,
		Data:     raw,
	}
}
