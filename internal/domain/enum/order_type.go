package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// OrderType discriminates the fulfilment flow of an order
type OrderType int

const (
	OrderTypeDineIn OrderType = iota
	OrderTypePickup
	OrderTypeDelivery
)

func (t OrderType) String() string {
	return [...]string{"dinein", "pickup", "delivery"}[t]
}

func (t OrderType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *OrderType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = OrderType(i)
		return nil
	}
	switch str {
	case "dinein":
		*t = OrderTypeDineIn
	case "pickup":
		*t = OrderTypePickup
	case "delivery":
		*t = OrderTypeDelivery
	}
	return nil
}

func (t OrderType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *OrderType) Scan(value interface{}) error {
	if value == nil {
		*t = OrderTypeDineIn
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = OrderType(v)
	case int:
		*t = OrderType(v)
	}
	return nil
}
