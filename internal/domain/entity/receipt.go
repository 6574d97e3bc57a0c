package entity

// ReceiptHeader holds the store header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt or kitchen ticket.
type ReceiptItem struct {
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	Total     float64  `json:"total"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// Receipt is a value object representing a printable customer receipt.
// It is not a database entity; it is composed from order data at print time.
type Receipt struct {
	Header      ReceiptHeader `json:"header"`
	OrderNo     string        `json:"order_no"`
	Date        string        `json:"date"`
	Cashier     string        `json:"cashier,omitempty"`
	Customer    string        `json:"customer,omitempty"`
	OrderType   string        `json:"order_type,omitempty"`
	Items       []ReceiptItem `json:"items"`
	SubTotal    float64       `json:"sub_total"`
	VAT         float64       `json:"vat"`
	Discount    float64       `json:"discount"`
	Total       float64       `json:"total"`
	Paid        float64       `json:"paid"`
	Change      float64       `json:"change"`
	PaymentType string        `json:"payment_type,omitempty"`
}

// KitchenTicket is a value object for the kitchen order ticket printed when
// a restaurant order moves to inprocess.
type KitchenTicket struct {
	OrderNo   string        `json:"order_no"`
	OrderType string        `json:"order_type"`
	Date      string        `json:"date"`
	Items     []ReceiptItem `json:"items"`
	Note      string        `json:"note,omitempty"`
}
