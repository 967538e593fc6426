package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderPlacement is one checkout run against the billing system.
type OrderPlacement struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ClientID       *string              `gorm:"column:client_id"`
	ClientCreated  bool                 `gorm:"column:client_created;not null;default:false"`
	CustomerEmail  string               `gorm:"column:customer_email;not null"`
	AffiliateID    *string              `gorm:"column:affiliate_id"`
	Outcome        string               `gorm:"column:outcome;not null"`
	ItemCount      int                  `gorm:"column:item_count;not null"`
	SucceededCount int                  `gorm:"column:succeeded_count;not null"`
	ErrorCode      *string              `gorm:"column:error_code"`
	ErrorMessage   *string              `gorm:"column:error_message"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	Steps          []OrderPlacementStep `gorm:"foreignKey:PlacementID;references:ID"`
}

func (OrderPlacement) TableName() string { return "order_placements" }

// OrderPlacementStep is the outcome of one line item within a placement.
type OrderPlacementStep struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PlacementID      uuid.UUID `gorm:"column:placement_id;type:uuid;not null"`
	Position         int       `gorm:"column:position;not null"`
	ProductID        string    `gorm:"column:product_id;not null"`
	BillingProductID *string   `gorm:"column:billing_product_id"`
	Status           string    `gorm:"column:status;not null"`
	OrderID          *string   `gorm:"column:order_id"`
	OrderNumber      *string   `gorm:"column:order_number"`
	InvoiceID        *string   `gorm:"column:invoice_id"`
	ReferrerAssigned bool      `gorm:"column:referrer_assigned;not null;default:false"`
	ErrorCode        *string   `gorm:"column:error_code"`
	ErrorMessage     *string   `gorm:"column:error_message"`
}

func (OrderPlacementStep) TableName() string { return "order_placement_steps" }
