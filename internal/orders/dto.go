package orders

// Customer is the checkout profile used to find or create the billing client.
type Customer struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=200"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Address   string `json:"address,omitempty" validate:"omitempty,max=200"`
	City      string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostCode  string `json:"postCode,omitempty" validate:"omitempty,max=20"`
	Country   string `json:"country,omitempty" validate:"omitempty,len=2"`
}

// LineItem is one product to order. Quantity above one is sent on the same
// billing order.
type LineItem struct {
	ProductID     string            `json:"productId" validate:"required,max=100"`
	Quantity      int               `json:"quantity" validate:"omitempty,min=1,max=100"`
	Cycle         string            `json:"cycle,omitempty" validate:"omitempty,max=20"`
	ConfigOptions map[string]string `json:"configOptions,omitempty"`
	Addons        []string          `json:"addons,omitempty" validate:"omitempty,dive,required,max=100"`
	PaymentModule string            `json:"paymentModule,omitempty" validate:"omitempty,max=100"`
	Domain        string            `json:"domain,omitempty" validate:"omitempty,max=253"`
}

type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepError   StepStatus = "error"
)

// StepResult is the outcome of one line item.
type StepResult struct {
	Position         int        `json:"position"`
	ProductID        string     `json:"productId"`
	BillingProductID string     `json:"billingProductId,omitempty"`
	Status           StepStatus `json:"status"`
	OrderID          string     `json:"orderId,omitempty"`
	OrderNumber      string     `json:"orderNumber,omitempty"`
	InvoiceID        string     `json:"invoiceId,omitempty"`
	ErrorCode        string     `json:"errorCode,omitempty"`
	Error            string     `json:"error,omitempty"`
	ReferrerAssigned bool       `json:"referrerAssigned,omitempty"`
}

// Result enumerates every step so partial success stays visible.
type Result struct {
	Success       bool         `json:"success"`
	PlacementID   string       `json:"placementId"`
	ClientID      string       `json:"clientId"`
	ClientCreated bool         `json:"clientCreated"`
	AffiliateID   string       `json:"affiliateId,omitempty"`
	Steps         []StepResult `json:"steps"`
	Succeeded     int          `json:"succeeded"`
	Failed        int          `json:"failed"`
}

// Outcome classifies a placement for reconciliation queries.
func (r *Result) Outcome() string {
	switch {
	case r.Succeeded == 0:
		return OutcomeFailed
	case r.Failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// OrderSummary is the storefront view of a billing order.
type OrderSummary struct {
	ID        string `json:"id"`
	Number    string `json:"number,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
	InvoiceID string `json:"invoiceId,omitempty"`
	Status    string `json:"status,omitempty"`
	Total     string `json:"total,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
