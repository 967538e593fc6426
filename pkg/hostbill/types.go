package hostbill

import "strings"

// Method names exposed by the HostBill admin API.
const (
	MethodGetAffiliates      = "getAffiliates"
	MethodGetAffiliate       = "getAffiliate"
	MethodGetClients         = "getClients"
	MethodAddClient          = "addClient"
	MethodAddOrder           = "addOrder"
	MethodGetOrderDetails    = "getOrderDetails"
	MethodGetOrders          = "getOrders"
	MethodSetOrderReferrer   = "setOrderReferrer"
	MethodGetOrderPages      = "getOrderPages"
	MethodGetProducts        = "getProducts"
	MethodGetPaymentModules  = "getPaymentModules"
	MethodGetCommissionPlans = "getAffiliateCommisionPlans"
	MethodAddInvoicePayment  = "addInvoicePayment"
	MethodChargeCreditCard   = "chargeCreditCard"
)

type Affiliate struct {
	ID        FlexString `json:"id"`
	ClientID  FlexString `json:"client_id"`
	Status    FlexString `json:"status"`
	FirstName FlexString `json:"firstname"`
	LastName  FlexString `json:"lastname"`
	Email     FlexString `json:"email"`
	Balance   FlexString `json:"balance"`
	Visits    FlexString `json:"visits"`
}

// Active reports whether the affiliate may earn referrals.
func (a Affiliate) Active() bool {
	return strings.EqualFold(a.Status.String(), "Active")
}

type ClientRecord struct {
	ID        FlexString `json:"id"`
	Email     FlexString `json:"email"`
	FirstName FlexString `json:"firstname"`
	LastName  FlexString `json:"lastname"`
	Status    FlexString `json:"status"`
}

// ClientInput is the payload for addClient.
type ClientInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	CompanyName string
	Phone       string
	Address1    string
	City        string
	PostCode    string
	Country     string
	Currency    string
}

// OrderRequest is the payload for addOrder.
type OrderRequest struct {
	ClientID      string
	ProductID     string
	Cycle         string
	Quantity      int
	ConfigOptions map[string]string
	Addons        []string
	PaymentModule string
	Domain        string
	Notes         string
}

// OrderCreated is the canonical addOrder result regardless of which keys
// HostBill used (order_id, id, or nested under data).
type OrderCreated struct {
	OrderID   string
	InvoiceID string
	Number    string
}

type OrderDetails struct {
	ID        FlexString `json:"id"`
	Number    FlexString `json:"number"`
	ClientID  FlexString `json:"client_id"`
	InvoiceID FlexString `json:"invoice_id"`
	Status    FlexString `json:"status"`
	Total     FlexString `json:"total"`
	Referrer  FlexString `json:"referrer"`
}

type OrderSummary struct {
	ID          FlexString `json:"id"`
	Number      FlexString `json:"number"`
	ClientID    FlexString `json:"client_id"`
	InvoiceID   FlexString `json:"invoice_id"`
	Status      FlexString `json:"status"`
	Total       FlexString `json:"total"`
	DateCreated FlexString `json:"date_created"`
}

type OrderFilter struct {
	ClientID string
	Status   string
	Page     int
}

type OrderPage struct {
	ID      FlexString `json:"id"`
	Name    FlexString `json:"name"`
	Slug    FlexString `json:"slug"`
	Visible FlexString `json:"visible"`
}

// Product is a billing catalog entry; price fields use HostBill cycle codes.
type Product struct {
	ID         FlexString `json:"id"`
	Name       FlexString `json:"name"`
	CategoryID FlexString `json:"category_id"`
	Visible    FlexString `json:"visible"`
	Monthly    FlexString `json:"m"`
	Quarterly  FlexString `json:"q"`
	Semiannual FlexString `json:"s"`
	Annually   FlexString `json:"a"`
}

// PaymentModule is an enabled gateway. Filename is the module's internal
// identifier (e.g. "class.stripe.php") and is more stable than the display name.
type PaymentModule struct {
	ID       FlexString `json:"id"`
	Name     FlexString `json:"modname"`
	Filename FlexString `json:"filename"`
}

type CommissionPlan struct {
	ID        FlexString   `json:"id"`
	Name      FlexString   `json:"name"`
	Type      FlexString   `json:"type"`
	Rate      FlexString   `json:"rate"`
	Recurring FlexString   `json:"recurring"`
	Products  []FlexString `json:"products"`
}

type InvoicePayment struct {
	InvoiceID     string
	Amount        string
	PaymentModule string
	TransactionID string
	Fee           string
	Date          string
}

type ChargeResult struct {
	InvoiceID string
	Status    string
	Message   string
}
