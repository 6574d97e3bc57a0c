package enum

// RecordSource tags where a row originated. Local rows are pending
// reconciliation; server rows are authoritative.
type RecordSource string

const (
	SourceLocal  RecordSource = "local"
	SourceServer RecordSource = "server"
)

// PaymentProvider names the tender used in a payment breakup entry
type PaymentProvider string

const (
	ProviderCash   PaymentProvider = "cash"
	ProviderCard   PaymentProvider = "card"
	ProviderWallet PaymentProvider = "wallet"
	ProviderCredit PaymentProvider = "credit"
)

// Valid reports whether p is a known tender type.
func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderCash, ProviderCard, ProviderWallet, ProviderCredit:
		return true
	}
	return false
}

// DrawerTxType marks a cash drawer transaction as a shift open or close
type DrawerTxType string

const (
	DrawerTxOpen  DrawerTxType = "open"
	DrawerTxClose DrawerTxType = "close"
)

// Industry selects industry-specific behavior, e.g. kitchen tickets print
// only for restaurants.
type Industry string

const (
	IndustryRestaurant Industry = "restaurant"
	IndustryRetail     Industry = "retail"
)
