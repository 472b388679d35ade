package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service owns cart mutations and pricing against live catalog state.
type Service struct {
	tx       txRunner
	repo     *Repository
	products productStore
	cfg      config.CartConfig
}

// NewService builds the cart service.
func NewService(tx txRunner, repo *Repository, products productStore, cfg config.CartConfig) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	return &Service{tx: tx, repo: repo, products: products, cfg: cfg}, nil
}

// AddItem inserts or increments a cart line for an active product.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}
	if s.cfg.MaxLineQty > 0 && qty > s.cfg.MaxLineQty {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty exceeds per-line maximum").
			WithDetails(map[string]any{"max": s.cfg.MaxLineQty})
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return pkgerrors.New(pkgerrors.CodeConflict, "product is not available").
			WithDetails(map[string]any{"product_id": productID.String(), "reason": IssueReasonInactive})
	}

	return s.repo.UpsertIncrement(ctx, models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Qty:       qty,
	})
}

// UpdateQuantity sets the line quantity. Zero or negative removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner id required")
	}
	if qty <= 0 {
		return s.repo.DeleteLine(ctx, userID, productID)
	}
	if s.cfg.MaxLineQty > 0 && qty > s.cfg.MaxLineQty {
		return pkgerrors.New(pkgerrors.CodeValidation, "qty exceeds per-line maximum").
			WithDetails(map[string]any{"max": s.cfg.MaxLineQty})
	}
	return s.repo.SetQty(ctx, userID, productID, qty)
}

// RemoveItem deletes the product line. Removing an absent line succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.repo.DeleteLine(ctx, userID, productID)
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

// PriceCart joins the cart against fresh product snapshots. Lines whose
// product disappeared or went inactive are dropped and flagged rather than
// priced at stale values.
func (s *Service) PriceCart(ctx context.Context, userID uuid.UUID) (*PricedCart, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	priced := &PricedCart{UserID: userID, Lines: []PricedLine{}}
	if len(lines) == 0 {
		return priced, nil
	}

	snapshots, err := s.snapshotsFor(ctx, lines)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		product, ok := snapshots[line.ProductID]
		if !ok || !product.IsActive {
			priced.Issues = append(priced.Issues, Issue{
				ProductID: line.ProductID,
				Reason:    IssueReasonInactive,
			})
			continue
		}
		unit := product.EffectivePriceCents()
		priced.Lines = append(priced.Lines, PricedLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            line.Qty,
			UnitPriceCents: unit,
			LineTotalCents: unit * line.Qty,
		})
		priced.SubtotalCents += unit * line.Qty
		priced.ItemCount += line.Qty
	}
	return priced, nil
}

// Validate reports every line that could not be checked out right now.
// An empty result means the cart is purchasable against current state.
func (s *Service) Validate(ctx context.Context, userID uuid.UUID) ([]Issue, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	snapshots, err := s.snapshotsFor(ctx, lines)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, line := range lines {
		product, ok := snapshots[line.ProductID]
		if !ok || !product.IsActive {
			issues = append(issues, Issue{ProductID: line.ProductID, Reason: IssueReasonInactive})
			continue
		}
		if product.StockQty < line.Qty {
			issues = append(issues, Issue{
				ProductID: line.ProductID,
				Reason:    IssueReasonInsufficientStock,
				Requested: line.Qty,
				Available: product.StockQty,
			})
		}
	}
	return issues, nil
}

// TransferGuestCart moves the guest cart onto the authenticated user.
// The merge strategy decides what happens when both carts hold the same
// product: replace discards the user's line, merge adds the quantities.
// The guest cart is always emptied.
func (s *Service) TransferGuestCart(ctx context.Context, guestID, userID uuid.UUID) error {
	if guestID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest and user ids required")
	}
	if guestID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest and user carts are the same")
	}

	strategy := s.cfg.MergeStrategyEnum()
	if !strategy.IsValid() {
		strategy = enums.CartMergeReplace
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		guestLines, err := repo.ListByUser(ctx, guestID)
		if err != nil {
			return err
		}

		for _, line := range guestLines {
			switch strategy {
			case enums.CartMergeMerge:
				if err := repo.UpsertIncrement(ctx, models.CartLine{
					UserID:    userID,
					ProductID: line.ProductID,
					Qty:       line.Qty,
				}); err != nil {
					return err
				}
			default:
				if err := repo.DeleteLine(ctx, userID, line.ProductID); err != nil {
					return err
				}
				if err := repo.UpsertIncrement(ctx, models.CartLine{
					UserID:    userID,
					ProductID: line.ProductID,
					Qty:       line.Qty,
				}); err != nil {
					return err
				}
			}
		}

		return repo.Clear(ctx, guestID)
	})
}

func (s *Service) snapshotsFor(ctx context.Context, lines []models.CartLine) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return s.products.FindByIDs(ctx, ids)
}
