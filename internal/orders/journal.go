package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vps-storefront/internal/repo"
	"github.com/angelmondragon/vps-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// Placement is a journal entry for one PlaceOrder call.
type Placement = models.OrderPlacement

// JournalFilter narrows placement listings.
type JournalFilter struct {
	Outcome string
	Limit   int
}

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// Repository persists placements in order_placements and order_placement_steps.
type Repository interface {
	Record(ctx context.Context, placement *Placement) error
	List(ctx context.Context, filter JournalFilter) ([]Placement, error)
	Find(ctx context.Context, id uuid.UUID) (*Placement, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a journal repository backed by db.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{Base: repo.NewBase(db)}
}

// Record inserts the placement and its steps in one transaction.
func (r *repository) Record(ctx context.Context, placement *Placement) error {
	if placement == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "placement is required")
	}
	if placement.ID == uuid.Nil {
		placement.ID = uuid.New()
	}
	for i := range placement.Steps {
		if placement.Steps[i].ID == uuid.Nil {
			placement.Steps[i].ID = uuid.New()
		}
		placement.Steps[i].PlacementID = placement.ID
	}
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return r.Within(tx).DB(ctx).Create(placement).Error
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order placement")
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter JournalFilter) ([]Placement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}

	query := r.DB(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Limit(limit)
	if outcome := strings.TrimSpace(filter.Outcome); outcome != "" {
		switch outcome {
		case OutcomeSuccess, OutcomePartial, OutcomeFailed:
		default:
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown outcome %q", outcome).
				WithDetails(map[string]any{"outcome": outcome})
		}
		query = query.Where("outcome = ?", outcome)
	}

	var placements []Placement
	if err := query.Find(&placements).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order placements")
	}
	return placements, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*Placement, error) {
	var placement Placement
	err := r.DB(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&placement, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "placement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order placement")
	}
	return &placement, nil
}

func newPlacement(id uuid.UUID, customer Customer, affiliateID string, items []LineItem, result *Result, cause error) *Placement {
	p := &Placement{
		ID:             id,
		CustomerEmail:  strings.ToLower(strings.TrimSpace(customer.Email)),
		AffiliateID:    optional(affiliateID),
		ItemCount:      len(items),
		SucceededCount: result.Succeeded,
		ClientID:       optional(result.ClientID),
		ClientCreated:  result.ClientCreated,
		Outcome:        result.Outcome(),
	}
	if cause != nil {
		p.Outcome = OutcomeFailed
		p.ErrorMessage = optional(cause.Error())
		if typed := pkgerrors.As(cause); typed != nil {
			p.ErrorCode = optional(string(typed.Code()))
			p.ErrorMessage = optional(typed.Message())
		}
	}
	for _, step := range result.Steps {
		p.Steps = append(p.Steps, models.OrderPlacementStep{
			ID:               uuid.New(),
			PlacementID:      id,
			Position:         step.Position,
			ProductID:        step.ProductID,
			BillingProductID: optional(step.BillingProductID),
			Status:           string(step.Status),
			OrderID:          optional(step.OrderID),
			OrderNumber:      optional(step.OrderNumber),
			InvoiceID:        optional(step.InvoiceID),
			ReferrerAssigned: step.ReferrerAssigned,
			ErrorCode:        optional(step.ErrorCode),
			ErrorMessage:     optional(step.Error),
		})
	}
	return p
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
