package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	couponsvc "storefront-backend/internal/coupons"
	"storefront-backend/pkg/db/models"
	pkgerrors "storefront-backend/pkg/errors"
)

type stubCouponService struct {
	quote       *couponsvc.Quote
	validateErr error
	created     *couponsvc.CreateInput
	deactivated *uuid.UUID
}

func (s *stubCouponService) Validate(ctx context.Context, code string, userID *uuid.UUID, amountCents int) (*couponsvc.Quote, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.quote, nil
}

func (s *stubCouponService) Create(ctx context.Context, input couponsvc.CreateInput) (*models.Coupon, error) {
	s.created = &input
	return &models.Coupon{ID: uuid.New(), Code: strings.ToUpper(input.Code), Type: input.Type, Value: input.Value}, nil
}

func (s *stubCouponService) Update(ctx context.Context, id uuid.UUID, input couponsvc.UpdateInput) (*models.Coupon, error) {
	return &models.Coupon{ID: id}, nil
}

func (s *stubCouponService) Deactivate(ctx context.Context, id uuid.UUID) error {
	s.deactivated = &id
	return nil
}

func (s *stubCouponService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Coupon, error) {
	return nil, nil
}

func TestCouponValidate_ReturnsQuote(t *testing.T) {
	svc := &stubCouponService{quote: &couponsvc.Quote{
		Coupon:        &models.Coupon{Code: "SAVE20"},
		DiscountCents: 2000,
		FinalCents:    10500,
	}}

	body := strings.NewReader(`{"code":"save20","amount_cents":12500}`)
	resp := httptest.NewRecorder()
	CouponValidate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data couponQuoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.DiscountCents != 2000 || envelope.Data.FinalCents != 10500 {
		t.Fatalf("unexpected quote: %+v", envelope.Data)
	}
}

func TestCouponValidate_RejectionSurfacesReason(t *testing.T) {
	svc := &stubCouponService{validateErr: pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired").
		WithDetails(map[string]any{"reason": couponsvc.ReasonExpired})}

	body := strings.NewReader(`{"code":"DEAD","amount_cents":5000}`)
	resp := httptest.NewRecorder()
	CouponValidate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["reason"] != couponsvc.ReasonExpired {
		t.Fatalf("expected rejection reason, got %+v", envelope.Error.Details)
	}
}

func TestAdminCouponCreate_ForwardsInput(t *testing.T) {
	svc := &stubCouponService{}
	body := strings.NewReader(`{
		"code": "summer25",
		"type": "percentage",
		"value": 25,
		"min_order_cents": 1000,
		"user_usage_limit": 1,
		"starts_at": "2026-06-01T00:00:00Z",
		"ends_at": "2026-09-01T00:00:00Z"
	}`)
	req := asStaff(httptest.NewRequest(http.MethodPost, "/", body), uuid.New())
	resp := httptest.NewRecorder()
	AdminCouponCreate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil || svc.created.Code != "summer25" || svc.created.Value != 25 {
		t.Fatalf("unexpected input: %+v", svc.created)
	}
}

func TestAdminCouponDeactivate(t *testing.T) {
	svc := &stubCouponService{}
	couponID := uuid.New()

	req := asStaff(httptest.NewRequest(http.MethodDelete, "/", nil), uuid.New())
	req = withPathParam(req, "couponId", couponID.String())
	resp := httptest.NewRecorder()
	AdminCouponDeactivate(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deactivated == nil || *svc.deactivated != couponID {
		t.Fatal("expected the coupon id to reach the service")
	}
}
