package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-backend/pkg/db/models"
	pkgerrors "storefront-backend/pkg/errors"
)

// Service implements coupon validation, redemption, and staff management.
type Service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// Validate checks a code against an order amount and, when known, the
// user's redemption history, and quotes the resulting discount. Every
// rejection carries a machine-readable reason in the error details.
func (s *Service) Validate(ctx context.Context, code string, userID *uuid.UUID, amountCents int) (*Quote, error) {
	if amountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found").
			WithDetails(map[string]any{"reason": ReasonNotFound})
	}

	now := s.now()
	if now.Before(coupon.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet").
			WithDetails(map[string]any{"reason": ReasonNotYetActive, "starts_at": coupon.StartsAt})
	}
	if now.After(coupon.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired").
			WithDetails(map[string]any{"reason": ReasonExpired, "ends_at": coupon.EndsAt})
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached").
			WithDetails(map[string]any{"reason": ReasonUsageLimitReached})
	}
	if amountCents < coupon.MinOrderCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount below coupon minimum").
			WithDetails(map[string]any{"reason": ReasonBelowMinimum, "min_order_cents": coupon.MinOrderCents})
	}
	if userID != nil {
		used, err := s.repo.CountUserUsage(ctx, coupon.ID, *userID)
		if err != nil {
			return nil, err
		}
		if used >= coupon.UserUsageLimit {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon already used by this customer").
				WithDetails(map[string]any{"reason": ReasonUserLimitReached})
		}
	}

	discount := computeDiscount(coupon, amountCents)
	return &Quote{
		Coupon:        coupon,
		DiscountCents: discount,
		FinalCents:    amountCents - discount,
	}, nil
}

// Apply redeems the coupon for an order inside the caller's transaction.
// The guarded used_count increment both enforces the global limit and
// locks the coupon row, so the per-user recount that follows cannot race
// a concurrent redemption. Either all three writes commit or none do.
// A nil userID means the redemption is anonymous: per-user limits do not
// apply and the usage row carries a null user.
func (s *Service) Apply(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID *uuid.UUID, orderID uuid.UUID) error {
	if tx == nil {
		return fmt.Errorf("apply coupon: transaction required")
	}
	if coupon == nil {
		return fmt.Errorf("apply coupon: coupon required")
	}

	repo := s.repo.WithTx(tx)
	if err := repo.IncrementUsedCount(ctx, coupon.ID); err != nil {
		return err
	}
	if userID != nil {
		used, err := repo.CountUserUsage(ctx, coupon.ID, *userID)
		if err != nil {
			return err
		}
		if used >= coupon.UserUsageLimit {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon already used by this customer").
				WithDetails(map[string]any{"reason": ReasonUserLimitReached})
		}
	}
	return repo.InsertUsage(ctx, &models.CouponUsage{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
	})
}

// Create registers a new coupon definition for staff.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown coupon type")
	}
	if input.Value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon end date must be after start date")
	}
	if input.UserUsageLimit < 1 {
		input.UserUsageLimit = 1
	}

	coupon := &models.Coupon{
		ID:               uuid.New(),
		Code:             code,
		Type:             input.Type,
		Value:            input.Value,
		MinOrderCents:    input.MinOrderCents,
		MaxDiscountCents: input.MaxDiscountCents,
		UsageLimit:       input.UsageLimit,
		UserUsageLimit:   input.UserUsageLimit,
		StartsAt:         input.StartsAt,
		EndsAt:           input.EndsAt,
		IsActive:         true,
	}
	return s.repo.Create(ctx, coupon)
}

// Update patches a coupon's mutable fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Value != nil {
		coupon.Value = *input.Value
	}
	if input.MinOrderCents != nil {
		coupon.MinOrderCents = *input.MinOrderCents
	}
	if input.MaxDiscountCents != nil {
		coupon.MaxDiscountCents = input.MaxDiscountCents
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	if input.UserUsageLimit != nil {
		coupon.UserUsageLimit = *input.UserUsageLimit
	}
	if input.StartsAt != nil {
		coupon.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		coupon.EndsAt = *input.EndsAt
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if coupon.Value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if !coupon.EndsAt.After(coupon.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon end date must be after start date")
	}
	if coupon.UserUsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user usage limit must be at least 1")
	}

	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Deactivate turns a coupon off without deleting its history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateInput{IsActive: &inactive})
	return err
}

// List returns coupons for the staff console.
func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Coupon, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, activeOnly, limit, offset)
}
