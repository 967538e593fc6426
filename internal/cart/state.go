package cart

import "time"

// Specs is the hardware summary shown on a cart line.
type Specs struct {
	CPU     string `json:"cpu"`
	RAM     string `json:"ram"`
	Storage string `json:"storage"`
}

// Item is one cart line. UnitPrice is the display string, e.g. "499 Kč".
type Item struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Specs            Specs             `json:"specs"`
	UnitPrice        string            `json:"unitPrice"`
	Quantity         int               `json:"quantity"`
	ProductID        string            `json:"productId,omitempty"`
	BillingProductID string            `json:"billingProductId,omitempty"`
	Cycle            string            `json:"cycle,omitempty"`
	ConfigOptions    map[string]string `json:"configOptions,omitempty"`
	Addons           []string          `json:"addons,omitempty"`
}

// State is the whole cart. Affiliate fields are not cart-scoped and survive
// CLEAR_CART. They are valid until AffiliateExpiresAt.
type State struct {
	Items              []Item     `json:"items"`
	AffiliateID        string     `json:"affiliateId,omitempty"`
	AffiliateCode      string     `json:"affiliateCode,omitempty"`
	AffiliateExpiresAt *time.Time `json:"affiliateExpiresAt,omitempty"`
}

type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionClearCart      ActionType = "CLEAR_CART"
	ActionSetAffiliate   ActionType = "SET_AFFILIATE"
)

type Action struct {
	Type               ActionType
	Item               Item
	ItemID             string
	Quantity           int
	AffiliateID        string
	AffiliateCode      string
	AffiliateExpiresAt time.Time
}

func AddItem(item Item) Action { return Action{Type: ActionAddItem, Item: item} }

func RemoveItem(id string) Action { return Action{Type: ActionRemoveItem, ItemID: id} }

func UpdateQuantity(id string, qty int) Action {
	return Action{Type: ActionUpdateQuantity, ItemID: id, Quantity: qty}
}

func ClearCart() Action { return Action{Type: ActionClearCart} }

// SetAffiliate attaches an affiliate valid until expiresAt. Empty id and code
// detach it.
func SetAffiliate(id, code string, expiresAt time.Time) Action {
	return Action{Type: ActionSetAffiliate, AffiliateID: id, AffiliateCode: code, AffiliateExpiresAt: expiresAt}
}

// ClearAffiliate detaches the affiliate and keeps the items.
func ClearAffiliate() Action {
	return SetAffiliate("", "", time.Time{})
}

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) State {
	next := State{
		Items:              make([]Item, 0, len(s.Items)+1),
		AffiliateID:        s.AffiliateID,
		AffiliateCode:      s.AffiliateCode,
		AffiliateExpiresAt: s.AffiliateExpiresAt,
	}
	switch a.Type {
	case ActionAddItem:
		found := false
		for _, it := range s.Items {
			if it.ID == a.Item.ID {
				it.Quantity++
				found = true
			}
			next.Items = append(next.Items, it)
		}
		if !found {
			item := a.Item
			item.Quantity = 1
			next.Items = append(next.Items, item)
		}
	case ActionRemoveItem:
		for _, it := range s.Items {
			if it.ID != a.ItemID {
				next.Items = append(next.Items, it)
			}
		}
	case ActionUpdateQuantity:
		if a.Quantity <= 0 {
			return Reduce(s, RemoveItem(a.ItemID))
		}
		for _, it := range s.Items {
			if it.ID == a.ItemID {
				it.Quantity = a.Quantity
			}
			next.Items = append(next.Items, it)
		}
	case ActionClearCart:
	case ActionSetAffiliate:
		next.Items = append(next.Items, s.Items...)
		next.AffiliateID = a.AffiliateID
		next.AffiliateCode = a.AffiliateCode
		next.AffiliateExpiresAt = nil
		if a.AffiliateID != "" || a.AffiliateCode != "" {
			expires := a.AffiliateExpiresAt.UTC()
			next.AffiliateExpiresAt = &expires
		}
	default:
		next.Items = append(next.Items, s.Items...)
	}
	return next
}

// HasAffiliate reports whether any affiliate field is set.
func (s State) HasAffiliate() bool {
	return s.AffiliateID != "" || s.AffiliateCode != ""
}

// AffiliateActive reports whether the affiliate is still valid at now. A
// record without an expiry is treated as expired.
func (s State) AffiliateActive(now time.Time) bool {
	return s.HasAffiliate() && s.AffiliateExpiresAt != nil && !now.After(*s.AffiliateExpiresAt)
}

// ItemCount is the sum of quantities.
func (s State) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of NumericPrice times quantity.
func (s State) Total() int64 {
	var total int64
	for _, it := range s.Items {
		total += NumericPrice(it.UnitPrice) * int64(it.Quantity)
	}
	return total
}

// NumericPrice keeps only the digits of a display price: "499 Kč" is 499.
func NumericPrice(price string) int64 {
	var n int64
	for _, r := range price {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
		}
	}
	return n
}

// Find returns the line with the given id.
func (s State) Find(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// View is the cart with derived values, as returned to the storefront.
type View struct {
	State
	ItemCount int   `json:"itemCount"`
	Total     int64 `json:"total"`
}

func (s State) View() View {
	if s.Items == nil {
		s.Items = []Item{}
	}
	return View{State: s, ItemCount: s.ItemCount(), Total: s.Total()}
}
