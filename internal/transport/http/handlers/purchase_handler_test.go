package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
	ledgersvc "github.com/pkaravayeu/paylater/internal/services/ledger"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
)

type ledgerTestStore struct {
	product  pgrepo.ProductRecord
	purchase pgrepo.PurchaseRecord
	legs     []pgrepo.InstallmentRecord
}

func (s *ledgerTestStore) FindByID(_ context.Context, productID int64) (pgrepo.ProductRecord, error) {
	if productID != s.product.ID {
		return pgrepo.ProductRecord{}, pgrepo.ErrProductNotFound
	}
	return s.product, nil
}

func (s *ledgerTestStore) CreateWithInstallments(
	_ context.Context,
	userID, productID int64,
	quantity int,
	total, paid, due decimal.Decimal,
	status string,
	installments []pgrepo.NewInstallmentRow,
) (pgrepo.PurchaseRecord, []pgrepo.InstallmentRecord, error) {
	if s.product.Stock < quantity {
		return pgrepo.PurchaseRecord{}, nil, pgrepo.ErrStockConflict
	}
	s.product.Stock -= quantity
	s.purchase = pgrepo.PurchaseRecord{
		ID:          1,
		UserID:      userID,
		ProductID:   productID,
		Quantity:    quantity,
		TotalAmount: total,
		PaidAmount:  paid,
		DueAmount:   due,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	s.legs = nil
	for i, row := range installments {
		s.legs = append(s.legs, pgrepo.InstallmentRecord{
			ID:            int64(i + 1),
			PurchaseID:    1,
			InstallmentNo: row.No,
			Amount:        row.Amount,
			DueDate:       row.DueDate,
			PaidDate:      row.PaidDate,
			Status:        row.Status,
		})
	}
	return s.purchase, s.legs, nil
}

type ledgerTestPurchases struct{ *ledgerTestStore }

func (s ledgerTestPurchases) FindByID(_ context.Context, purchaseID int64) (pgrepo.PurchaseRecord, error) {
	if s.purchase.ID != purchaseID {
		return pgrepo.PurchaseRecord{}, pgrepo.ErrPurchaseNotFound
	}
	return s.purchase, nil
}

func (s ledgerTestPurchases) List(_ context.Context, _ pgrepo.PurchaseFilter) ([]pgrepo.PurchaseRecord, int64, error) {
	if s.purchase.ID == 0 {
		return nil, 0, nil
	}
	return []pgrepo.PurchaseRecord{s.purchase}, 1, nil
}

type ledgerTestInstallments struct{ *ledgerTestStore }

func (s ledgerTestInstallments) FindByID(_ context.Context, installmentID int64) (pgrepo.InstallmentRecord, error) {
	for _, leg := range s.legs {
		if leg.ID == installmentID {
			return leg, nil
		}
	}
	return pgrepo.InstallmentRecord{}, pgrepo.ErrInstallmentNotFound
}

func (s ledgerTestInstallments) ListByPurchase(_ context.Context, _ int64) ([]pgrepo.InstallmentRecord, error) {
	return s.legs, nil
}

func (s ledgerTestInstallments) Pay(_ context.Context, installmentID int64, paymentRef string, now time.Time) (pgrepo.InstallmentRecord, pgrepo.PurchaseRecord, error) {
	for i, leg := range s.legs {
		if leg.ID != installmentID {
			continue
		}
		if leg.Status == string(enums.InstallmentStatusPaid) {
			return pgrepo.InstallmentRecord{}, pgrepo.PurchaseRecord{}, pgrepo.ErrInstallmentPaid
		}
		leg.Status = string(enums.InstallmentStatusPaid)
		leg.PaidDate = &now
		leg.PaymentRef = &paymentRef
		s.legs[i] = leg

		s.purchase.PaidAmount = s.purchase.PaidAmount.Add(leg.Amount)
		s.purchase.DueAmount = s.purchase.TotalAmount.Sub(s.purchase.PaidAmount)
		if s.purchase.DueAmount.Sign() <= 0 {
			s.purchase.Status = string(enums.PurchaseStatusPaid)
		}
		return leg, s.purchase, nil
	}
	return pgrepo.InstallmentRecord{}, pgrepo.PurchaseRecord{}, pgrepo.ErrInstallmentNotFound
}

func (s ledgerTestInstallments) List(_ context.Context, _ pgrepo.InstallmentFilter) ([]pgrepo.InstallmentRecord, int64, error) {
	return s.legs, int64(len(s.legs)), nil
}

func newLedgerHandlerForTest() (*PurchaseHandler, *InstallmentHandler, *ledgerTestStore) {
	store := &ledgerTestStore{
		product: pgrepo.ProductRecord{
			ID:    1,
			Name:  "Laptop",
			Price: decimal.RequireFromString("100.00"),
			Stock: 10,
		},
	}
	svc := ledgersvc.NewService(ledgersvc.Dependencies{
		Products:     store,
		Purchases:    ledgerTestPurchases{store},
		Installments: ledgerTestInstallments{store},
	})
	return NewPurchaseHandler(svc), NewInstallmentHandler(svc), store
}

func withIdentity(req *http.Request, userID int64, role enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		SID:    "sid-test",
		Role:   role,
	}))
}

func TestPurchaseCreateHandler(t *testing.T) {
	purchaseHandler, _, _ := newLedgerHandlerForTest()

	body := `{"product_id":1,"quantity":2,"paid_amount":"50.00"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	req = withIdentity(req, 5, enums.RoleCustomer)

	rr := httptest.NewRecorder()
	purchaseHandler.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}

	var res dto.PurchaseDetailResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Purchase.TotalAmount != "200.00" || res.Purchase.DueAmount != "150.00" {
		t.Fatalf("unexpected amounts: %+v", res.Purchase)
	}
	if res.Purchase.IsPaid {
		t.Fatalf("purchase must not be paid yet")
	}
	if len(res.Installments) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(res.Installments))
	}
	if !res.Installments[0].IsPaid || res.Installments[1].IsPaid {
		t.Fatalf("unexpected paid flags: %+v", res.Installments)
	}
}

func TestPurchaseCreateHandlerRejectsAnonymous(t *testing.T) {
	purchaseHandler, _, _ := newLedgerHandlerForTest()

	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(`{"product_id":1,"quantity":1}`))
	rr := httptest.NewRecorder()
	purchaseHandler.Create(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestPayInstallmentHandler(t *testing.T) {
	purchaseHandler, installmentHandler, _ := newLedgerHandlerForTest()

	body := `{"product_id":1,"quantity":2,"paid_amount":"50.00"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	req = withIdentity(req, 5, enums.RoleCustomer)
	rr := httptest.NewRecorder()
	purchaseHandler.Create(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create purchase: %d %s", rr.Code, rr.Body.String())
	}

	payReq := httptest.NewRequest(http.MethodPost, "/installments/2/pay", nil)
	payReq = withIdentity(payReq, 5, enums.RoleCustomer)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "2")
	payReq = payReq.WithContext(context.WithValue(payReq.Context(), chi.RouteCtxKey, rctx))

	rr = httptest.NewRecorder()
	installmentHandler.Pay(rr, payReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("pay installment: %d %s", rr.Code, rr.Body.String())
	}

	var res dto.PayInstallmentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.FullyPaid || !res.Purchase.IsPaid {
		t.Fatalf("purchase should be settled: %+v", res)
	}
	if res.Installment.PaymentRef == nil || *res.Installment.PaymentRef == "" {
		t.Fatalf("payment ref missing: %+v", res.Installment)
	}

	// Paying the same leg again conflicts.
	rr = httptest.NewRecorder()
	installmentHandler.Pay(rr, payReq)
	if rr.Code != http.StatusConflict {
		t.Fatalf("second pay: expected 409, got %d", rr.Code)
	}
}

func TestPurchaseCreateHandlerOutOfStock(t *testing.T) {
	purchaseHandler, _, _ := newLedgerHandlerForTest()

	body := `{"product_id":1,"quantity":11,"paid_amount":"0"}`
	req := httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))
	req = withIdentity(req, 5, enums.RoleCustomer)

	rr := httptest.NewRecorder()
	purchaseHandler.Create(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}
}
