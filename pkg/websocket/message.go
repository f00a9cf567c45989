// Package websocket pushes display slot changes to live viewers and lets a
// viewer follow them.
package websocket

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeUpdate   = "update"
	TypePopup    = "popup"
)

// SlotState is the value and visibility of one slot.
type SlotState struct {
	Value   any  `json:"value"`
	Visible bool `json:"visible"`
}

// Message is one frame sent from the hub to viewers. A snapshot carries every
// known slot and is always the first frame of a connection.
type Message struct {
	Type    string               `json:"type"`
	Key     string               `json:"key,omitempty"`
	Value   any                  `json:"value,omitempty"`
	Visible bool                 `json:"visible,omitempty"`
	Text    string               `json:"message,omitempty"`
	Slots   map[string]SlotState `json:"slots,omitempty"`
}
