package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	checkoutsvc "storefront-backend/internal/checkout"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
)

type stubCheckoutService struct {
	input checkoutsvc.PlaceOrderInput
	order *models.Order
	err   error
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	s.input = input
	return s.order, s.err
}

const checkoutBody = `{
	"customer_name": "Ada Smith",
	"shipping_address": {"line1":"1 Elm St","city":"Springfield","state":"IL","postal_code":"62704","country":"US"},
	"shipping_cents": 500,
	"payment_method": "cash_on_delivery"
}`

func TestCheckout_GuestCartOrder(t *testing.T) {
	guestID := uuid.New()
	svc := &stubCheckoutService{order: &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending, CustomerName: "Ada Smith"}}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(checkoutBody))
	req.Header.Set("X-Guest-Token", guestID.String())
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.CartOwnerID == nil || *svc.input.CartOwnerID != guestID {
		t.Fatal("expected the guest cart to be consumed")
	}
	if svc.input.UserID != nil {
		t.Fatal("guest checkout must not carry a user id")
	}
}

func TestCheckout_ItemListSkipsCart(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubCheckoutService{order: &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending}}

	body := `{
		"items": [{"product_id":"` + productID.String() + `","qty":2}],
		"customer_name": "Ada Smith",
		"shipping_address": {"line1":"1 Elm St","city":"Springfield","state":"IL","postal_code":"62704","country":"US"},
		"payment_method": "cash_on_delivery"
	}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.CartOwnerID != nil {
		t.Fatal("item list checkout must not consume a cart")
	}
	if len(svc.input.Items) != 1 || svc.input.Items[0].Qty != 2 {
		t.Fatalf("unexpected items: %+v", svc.input.Items)
	}
	if svc.input.UserID == nil || *svc.input.UserID != userID {
		t.Fatal("expected the authenticated user on the order")
	}
}

func TestCheckout_UnknownPaymentMethodIsRejected(t *testing.T) {
	body := strings.Replace(checkoutBody, "cash_on_delivery", "barter", 1)
	req := asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	Checkout(&stubCheckoutService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckout_FailedChargePointsAtTheOrder(t *testing.T) {
	userID := uuid.New()
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusFailed}
	svc := &stubCheckoutService{
		order: order,
		err:   pkgerrors.New(pkgerrors.CodeDependency, "card charge failed"),
	}

	body := strings.Replace(checkoutBody, `"payment_method": "cash_on_delivery"`, `"payment_method": "card", "payment_source_id": "src-1"`, 1)
	req := asUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["order_id"] != order.ID.String() {
		t.Fatalf("expected the committed order id in details, got %+v", envelope.Error.Details)
	}
}
