package models

// Inventory is the per-event ticket ledger. Sold and Held only move through
// the three ledger operations; sold+held never exceeds total.
type Inventory struct {
	EventID string `json:"event_id"`
	Total   int64  `json:"total"`
	Sold    int64  `json:"sold"`
	Held    int64  `json:"held"`
}

func (i *Inventory) Available() int64 {
	return i.Total - i.Sold - i.Held
}

type HoldState string

const (
	HoldStateHeld      HoldState = "held"
	HoldStateCommitted HoldState = "committed"
	HoldStateReleased  HoldState = "released"
)

// Hold is the inventory reservation backing one PENDING booking.
type Hold struct {
	Token    string    `json:"token"`
	EventID  string    `json:"event_id"`
	Quantity int64     `json:"quantity"`
	State    HoldState `json:"state"`
}
