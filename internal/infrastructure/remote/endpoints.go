package remote

import "net/http"

// Endpoint names one remote API operation. Paths use resty path parameters
// ({id}) filled per call.
type Endpoint struct {
	Method string
	Path   string
}

// Pull endpoints return records changed since the requested watermark.
var (
	PullCategories  = Endpoint{http.MethodGet, "/pull/category"}
	PullProducts    = Endpoint{http.MethodGet, "/pull/product"}
	PullCustomers   = Endpoint{http.MethodGet, "/pull/customer"}
	PullOrders      = Endpoint{http.MethodGet, "/pull/order"}
	PullDeviceUsers = Endpoint{http.MethodGet, "/pull/device-user"}
	PullShifts      = Endpoint{http.MethodGet, "/pull/cash-drawer"}
	PullSettings    = Endpoint{http.MethodGet, "/pull/billing-settings"}
)

// Push and command endpoints.
var (
	PushOrders        = Endpoint{http.MethodPost, "/push/orders"}
	PushCustomers     = Endpoint{http.MethodPost, "/push/customers"}
	PushShifts        = Endpoint{http.MethodPost, "/push/cash-drawer"}
	PushStock         = Endpoint{http.MethodPost, "/push/stock"}
	UpdateOrder       = Endpoint{http.MethodPatch, "/ordering/order/{id}"}
	UpdateOrderStatus = Endpoint{http.MethodPatch, "/ordering/order/{id}/status"}
	RedeemFunds       = Endpoint{http.MethodPost, "/customer/{id}/redeem"}
	UpdateSettings    = Endpoint{http.MethodPut, "/billing-settings"}
)
