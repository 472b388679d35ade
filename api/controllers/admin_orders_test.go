package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ordersvc "storefront-backend/internal/orders"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/pagination"
)

type stubAdminOrderService struct {
	order      *models.Order
	transition *ordersvc.TransitionInput
	batchIDs   []uuid.UUID
	listStatus *enums.OrderStatus
}

func (s *stubAdminOrderService) Transition(ctx context.Context, input ordersvc.TransitionInput) (*models.Order, error) {
	s.transition = &input
	updated := *s.order
	updated.Status = input.NewStatus
	return &updated, nil
}

func (s *stubAdminOrderService) BatchTransition(ctx context.Context, orderIDs []uuid.UUID, status enums.OrderStatus, notes *string, actorID *uuid.UUID) ([]ordersvc.BatchResult, error) {
	s.batchIDs = orderIDs
	results := make([]ordersvc.BatchResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		results = append(results, ordersvc.BatchResult{OrderID: id, OK: true})
	}
	return results, nil
}

func (s *stubAdminOrderService) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, string, error) {
	s.listStatus = status
	if s.order != nil {
		return []models.Order{*s.order}, "next-page", nil
	}
	return nil, "", nil
}

func TestAdminOrderTransition_ForwardsStatusAndActor(t *testing.T) {
	staffID := uuid.New()
	svc := &stubAdminOrderService{order: pendingOrderFor(uuid.New())}

	body := strings.NewReader(`{"status":"confirmed","notes":"payment checked"}`)
	req := asStaff(httptest.NewRequest(http.MethodPost, "/", body), staffID)
	req = withPathParam(req, "orderId", svc.order.ID.String())
	resp := httptest.NewRecorder()
	AdminOrderTransition(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.transition.NewStatus != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status %s", svc.transition.NewStatus)
	}
	if svc.transition.ActorID == nil || *svc.transition.ActorID != staffID {
		t.Fatal("expected the staff actor on the transition")
	}
}

func TestAdminOrderTransition_UnknownStatusIsRejected(t *testing.T) {
	svc := &stubAdminOrderService{order: pendingOrderFor(uuid.New())}

	req := asStaff(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"teleported"}`)), uuid.New())
	req = withPathParam(req, "orderId", svc.order.ID.String())
	resp := httptest.NewRecorder()
	AdminOrderTransition(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.transition != nil {
		t.Fatal("no transition should have been attempted")
	}
}

func TestAdminOrderBatchTransition_ReturnsPerOrderResults(t *testing.T) {
	svc := &stubAdminOrderService{order: pendingOrderFor(uuid.New())}
	first, second := uuid.New(), uuid.New()

	body := strings.NewReader(`{"order_ids":["` + first.String() + `","` + second.String() + `"],"status":"processing"}`)
	req := asStaff(httptest.NewRequest(http.MethodPost, "/", body), uuid.New())
	resp := httptest.NewRecorder()
	AdminOrderBatchTransition(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.batchIDs) != 2 {
		t.Fatalf("expected 2 ids forwarded, got %d", len(svc.batchIDs))
	}
	var envelope struct {
		Data struct {
			Results []ordersvc.BatchResult `json:"results"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Results) != 2 || !envelope.Data.Results[0].OK {
		t.Fatalf("unexpected results: %+v", envelope.Data.Results)
	}
}

func TestAdminOrdersList_FiltersByStatus(t *testing.T) {
	svc := &stubAdminOrderService{order: pendingOrderFor(uuid.New())}

	req := asStaff(httptest.NewRequest(http.MethodGet, "/?status=shipped", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminOrdersList(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listStatus == nil || *svc.listStatus != enums.OrderStatusShipped {
		t.Fatal("expected the shipped filter to reach the service")
	}
}

func TestAdminOrdersList_UnknownStatusIsRejected(t *testing.T) {
	req := asStaff(httptest.NewRequest(http.MethodGet, "/?status=vanished", nil), uuid.New())
	resp := httptest.NewRecorder()
	AdminOrdersList(&stubAdminOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
