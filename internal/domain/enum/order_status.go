package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus int

const (
	OrderStatusOpen OrderStatus = iota
	OrderStatusInProcess
	OrderStatusReady
	OrderStatusCompleted
	OrderStatusCancelled
)

func (s OrderStatus) String() string {
	return [...]string{"open", "inprocess", "ready", "completed", "cancelled"}[s]
}

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Next returns the forward transition target, or false from a terminal state.
// Cancellation is the only transition that skips states and is handled
// separately with explicit confirmation.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusOpen:
		return OrderStatusInProcess, true
	case OrderStatusInProcess:
		return OrderStatusReady, true
	case OrderStatusReady:
		return OrderStatusCompleted, true
	default:
		return s, false
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = OrderStatus(i)
		return nil
	}
	switch str {
	case "open":
		*s = OrderStatusOpen
	case "inprocess":
		*s = OrderStatusInProcess
	case "ready":
		*s = OrderStatusReady
	case "completed":
		*s = OrderStatusCompleted
	case "cancelled":
		*s = OrderStatusCancelled
	}
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusOpen
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	}
	return nil
}
