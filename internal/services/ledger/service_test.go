package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	"github.com/pkaravayeu/paylater/internal/domain/rules"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
)

// stubStore guards its maps with a mutex so tests can race operations the way
// concurrent requests would race repository transactions.
type stubStore struct {
	mu               sync.Mutex
	products         map[int64]pgrepo.ProductRecord
	purchases        map[int64]pgrepo.PurchaseRecord
	installments     map[int64]pgrepo.InstallmentRecord
	nextPurchaseID   int64
	nextInstallentID int64
}

func newStubStore() *stubStore {
	return &stubStore{
		products:         map[int64]pgrepo.ProductRecord{},
		purchases:        map[int64]pgrepo.PurchaseRecord{},
		installments:     map[int64]pgrepo.InstallmentRecord{},
		nextPurchaseID:   1,
		nextInstallentID: 1,
	}
}

func (s *stubStore) FindByID(_ context.Context, productID int64) (pgrepo.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.products[productID]
	if !ok {
		return pgrepo.ProductRecord{}, pgrepo.ErrProductNotFound
	}
	return record, nil
}

func (s *stubStore) CreateWithInstallments(
	_ context.Context,
	userID, productID int64,
	quantity int,
	total, paid, due decimal.Decimal,
	status string,
	installments []pgrepo.NewInstallmentRow,
) (pgrepo.PurchaseRecord, []pgrepo.InstallmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return pgrepo.PurchaseRecord{}, nil, pgrepo.ErrProductNotFound
	}
	if product.Stock < quantity {
		return pgrepo.PurchaseRecord{}, nil, pgrepo.ErrStockConflict
	}
	product.Stock -= quantity
	s.products[productID] = product

	purchase := pgrepo.PurchaseRecord{
		ID:          s.nextPurchaseID,
		UserID:      userID,
		ProductID:   productID,
		Quantity:    quantity,
		TotalAmount: total,
		PaidAmount:  paid,
		DueAmount:   due,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	s.purchases[purchase.ID] = purchase
	s.nextPurchaseID++

	var legs []pgrepo.InstallmentRecord
	for _, row := range installments {
		record := pgrepo.InstallmentRecord{
			ID:            s.nextInstallentID,
			PurchaseID:    purchase.ID,
			InstallmentNo: row.No,
			Amount:        row.Amount,
			DueDate:       row.DueDate,
			PaidDate:      row.PaidDate,
			Status:        row.Status,
		}
		s.installments[record.ID] = record
		s.nextInstallentID++
		legs = append(legs, record)
	}
	return purchase, legs, nil
}

func (s *stubStore) FindPurchaseByID(_ context.Context, purchaseID int64) (pgrepo.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.purchases[purchaseID]
	if !ok {
		return pgrepo.PurchaseRecord{}, pgrepo.ErrPurchaseNotFound
	}
	return record, nil
}

func (s *stubStore) List(_ context.Context, filter pgrepo.PurchaseFilter) ([]pgrepo.PurchaseRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []pgrepo.PurchaseRecord
	for id := int64(1); id < s.nextPurchaseID; id++ {
		record, ok := s.purchases[id]
		if !ok {
			continue
		}
		if filter.UserID != nil && record.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		all = append(all, record)
	}
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

type purchaseStoreAdapter struct{ *stubStore }

func (a purchaseStoreAdapter) FindByID(ctx context.Context, purchaseID int64) (pgrepo.PurchaseRecord, error) {
	return a.stubStore.FindPurchaseByID(ctx, purchaseID)
}

type installmentStoreAdapter struct{ *stubStore }

func (a installmentStoreAdapter) FindByID(_ context.Context, installmentID int64) (pgrepo.InstallmentRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.installments[installmentID]
	if !ok {
		return pgrepo.InstallmentRecord{}, pgrepo.ErrInstallmentNotFound
	}
	return record, nil
}

func (a installmentStoreAdapter) ListByPurchase(_ context.Context, purchaseID int64) ([]pgrepo.InstallmentRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var legs []pgrepo.InstallmentRecord
	for id := int64(1); id < a.nextInstallentID; id++ {
		record, ok := a.installments[id]
		if ok && record.PurchaseID == purchaseID {
			legs = append(legs, record)
		}
	}
	return legs, nil
}

func (a installmentStoreAdapter) Pay(_ context.Context, installmentID int64, paymentRef string, now time.Time) (pgrepo.InstallmentRecord, pgrepo.PurchaseRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.installments[installmentID]
	if !ok {
		return pgrepo.InstallmentRecord{}, pgrepo.PurchaseRecord{}, pgrepo.ErrInstallmentNotFound
	}
	if record.Status == string(enums.InstallmentStatusPaid) {
		return pgrepo.InstallmentRecord{}, pgrepo.PurchaseRecord{}, pgrepo.ErrInstallmentPaid
	}
	purchase, ok := a.purchases[record.PurchaseID]
	if !ok {
		return pgrepo.InstallmentRecord{}, pgrepo.PurchaseRecord{}, pgrepo.ErrPurchaseNotFound
	}

	record.Status = string(enums.InstallmentStatusPaid)
	record.PaidDate = &now
	record.PaymentRef = &paymentRef
	a.installments[installmentID] = record

	purchase.PaidAmount = purchase.PaidAmount.Add(record.Amount)
	purchase.DueAmount = purchase.TotalAmount.Sub(purchase.PaidAmount)
	if purchase.DueAmount.Sign() <= 0 {
		purchase.Status = string(enums.PurchaseStatusPaid)
	}
	purchase.UpdatedAt = now
	a.purchases[purchase.ID] = purchase

	return record, purchase, nil
}

func (a installmentStoreAdapter) List(_ context.Context, filter pgrepo.InstallmentFilter) ([]pgrepo.InstallmentRecord, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var all []pgrepo.InstallmentRecord
	for id := int64(1); id < a.nextInstallentID; id++ {
		record, ok := a.installments[id]
		if !ok {
			continue
		}
		if filter.UserID != nil {
			purchase, ok := a.purchases[record.PurchaseID]
			if !ok || purchase.UserID != *filter.UserID {
				continue
			}
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		all = append(all, record)
	}
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

type recordingNotifier struct {
	messages map[int64][]string
}

func (n *recordingNotifier) Send(_ context.Context, userID int64, message string) error {
	if n.messages == nil {
		n.messages = map[int64][]string{}
	}
	n.messages[userID] = append(n.messages[userID], message)
	return nil
}

func newLedgerForTest() (*Service, *stubStore, *recordingNotifier) {
	store := newStubStore()
	store.products[1] = pgrepo.ProductRecord{
		ID:         1,
		CategoryID: 1,
		Name:       "Laptop",
		Price:      decimal.RequireFromString("100.00"),
		Stock:      10,
	}
	svc := NewService(Dependencies{
		Products:     store,
		Purchases:    purchaseStoreAdapter{store},
		Installments: installmentStoreAdapter{store},
	})
	notifier := &recordingNotifier{}
	svc.AttachNotifier(notifier)
	return svc, store, notifier
}

func customer(id int64) authsvc.Identity {
	return authsvc.Identity{UserID: id, Role: enums.RoleCustomer}
}

func admin() authsvc.Identity {
	return authsvc.Identity{UserID: 999, Role: enums.RoleAdmin}
}

func TestCreatePurchaseSplit(t *testing.T) {
	svc, store, _ := newLedgerForTest()
	ctx := context.Background()

	detail, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{
		ProductID:  1,
		Quantity:   2,
		PaidAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	purchase := detail.Purchase
	if !purchase.TotalAmount.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("unexpected total: %s", purchase.TotalAmount)
	}
	if !purchase.PaidAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected paid: %s", purchase.PaidAmount)
	}
	if !purchase.DueAmount.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("unexpected due: %s", purchase.DueAmount)
	}
	if purchase.Status != string(enums.PurchaseStatusPending) {
		t.Fatalf("unexpected status: %s", purchase.Status)
	}

	if len(detail.Installments) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(detail.Installments))
	}
	first, second := detail.Installments[0], detail.Installments[1]
	if first.Status != string(enums.InstallmentStatusPaid) || !first.Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected first leg: %+v", first)
	}
	if second.Status != string(enums.InstallmentStatusPending) || !second.Amount.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("unexpected second leg: %+v", second)
	}
	wantDue := first.DueDate.AddDate(0, 0, 30)
	if !second.DueDate.Equal(wantDue) {
		t.Fatalf("second leg due %v, want %v", second.DueDate, wantDue)
	}

	if store.products[1].Stock != 8 {
		t.Fatalf("stock was not decremented: %d", store.products[1].Stock)
	}
}

func TestCreatePurchaseFullyPaidUpfront(t *testing.T) {
	svc, _, _ := newLedgerForTest()

	detail, err := svc.CreatePurchase(context.Background(), customer(5), CreatePurchaseInput{
		ProductID:  1,
		Quantity:   1,
		PaidAmount: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if detail.Purchase.Status != string(enums.PurchaseStatusPaid) {
		t.Fatalf("expected purchase to be paid, got %s", detail.Purchase.Status)
	}
	if len(detail.Installments) != 1 {
		t.Fatalf("expected a single settled leg, got %d", len(detail.Installments))
	}
}

func TestCreatePurchasePlanMode(t *testing.T) {
	svc, _, _ := newLedgerForTest()

	detail, err := svc.CreatePurchase(context.Background(), customer(5), CreatePurchaseInput{
		ProductID: 1,
		Quantity:  3,
		Mode:      ModePlan,
		Plan: []rules.PlanEntry{
			{Amount: decimal.RequireFromString("100.00"), DaysAfter: 0},
			{Amount: decimal.RequireFromString("100.00"), DaysAfter: 30},
			{Amount: decimal.RequireFromString("100.00"), DaysAfter: 60},
		},
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	if len(detail.Installments) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(detail.Installments))
	}
	for _, leg := range detail.Installments {
		if leg.Status != string(enums.InstallmentStatusPending) {
			t.Fatalf("plan legs must start pending, got %+v", leg)
		}
	}
	if !detail.Purchase.DueAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("unexpected due: %s", detail.Purchase.DueAmount)
	}
}

func TestCreatePurchasePlanMismatchRejected(t *testing.T) {
	svc, _, _ := newLedgerForTest()

	_, err := svc.CreatePurchase(context.Background(), customer(5), CreatePurchaseInput{
		ProductID: 1,
		Quantity:  1,
		Mode:      ModePlan,
		Plan: []rules.PlanEntry{
			{Amount: decimal.RequireFromString("60.00"), DaysAfter: 0},
		},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for mismatched plan, got %v", err)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()

	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{ProductID: 1, Quantity: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero quantity: expected ErrValidation, got %v", err)
	}
	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{
		ProductID:  1,
		Quantity:   1,
		PaidAmount: decimal.RequireFromString("150.00"),
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("overpayment: expected ErrValidation, got %v", err)
	}
	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{ProductID: 404, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{ProductID: 1, Quantity: 11}); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("oversell: expected ErrOutOfStock, got %v", err)
	}
	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{
		ProductID: 1,
		Quantity:  1,
		Mode:      ModeSplit,
		Plan:      []rules.PlanEntry{{Amount: decimal.RequireFromString("100.00"), DaysAfter: 0}},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("plan entries in split mode: expected ErrValidation, got %v", err)
	}
	if _, err := svc.CreatePurchase(ctx, customer(5), CreatePurchaseInput{
		ProductID:  1,
		Quantity:   1,
		Mode:       ModePlan,
		PaidAmount: decimal.RequireFromString("10.00"),
		Plan:       []rules.PlanEntry{{Amount: decimal.RequireFromString("100.00"), DaysAfter: 0}},
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("paid amount in plan mode: expected ErrValidation, got %v", err)
	}
}

func TestPayInstallmentSettlesPurchase(t *testing.T) {
	svc, _, notifier := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	detail, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID:  1,
		Quantity:   2,
		PaidAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	pending := detail.Installments[1]
	result, err := svc.PayInstallment(ctx, owner, pending.ID)
	if err != nil {
		t.Fatalf("pay installment: %v", err)
	}

	if result.Installment.Status != string(enums.InstallmentStatusPaid) {
		t.Fatalf("installment not marked paid: %+v", result.Installment)
	}
	if result.Installment.PaymentRef == nil || *result.Installment.PaymentRef == "" {
		t.Fatalf("payment ref missing: %+v", result.Installment)
	}
	if !result.FullyPaid {
		t.Fatalf("purchase should be fully paid: %+v", result.Purchase)
	}
	if !result.Purchase.DueAmount.Equal(decimal.Zero) {
		t.Fatalf("due amount should be zero, got %s", result.Purchase.DueAmount)
	}
	if result.Purchase.Status != string(enums.PurchaseStatusPaid) {
		t.Fatalf("purchase status should be paid, got %s", result.Purchase.Status)
	}

	messages := notifier.messages[owner.UserID]
	if len(messages) != 2 {
		t.Fatalf("expected create + settle notifications, got %v", messages)
	}
}

func TestPayInstallmentTwiceConflicts(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	detail, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID:  1,
		Quantity:   2,
		PaidAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	pending := detail.Installments[1]
	if _, err := svc.PayInstallment(ctx, owner, pending.ID); err != nil {
		t.Fatalf("first pay: %v", err)
	}
	if _, err := svc.PayInstallment(ctx, owner, pending.ID); !errors.Is(err, ErrInstallmentPaid) {
		t.Fatalf("second pay: expected ErrInstallmentPaid, got %v", err)
	}
}

func TestPayInstallmentConcurrentSingleWinner(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	detail, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID: 1,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	leg := detail.Installments[0]

	const payers = 8
	results := make(chan error, payers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < payers; i++ {
		go func() {
			start.Wait()
			_, err := svc.PayInstallment(ctx, owner, leg.ID)
			results <- err
		}()
	}
	start.Done()

	var wins, conflicts int
	for i := 0; i < payers; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		case errors.Is(err, ErrInstallmentPaid):
			conflicts++
		default:
			t.Fatalf("unexpected pay error: %v", err)
		}
	}
	if wins != 1 || conflicts != payers-1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
	}

	settled, err := svc.GetPurchase(ctx, owner, detail.Purchase.ID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if !settled.Purchase.PaidAmount.Equal(leg.Amount) {
		t.Fatalf("payment applied %s, want exactly one application of %s",
			settled.Purchase.PaidAmount, leg.Amount)
	}
	if settled.Purchase.Status != string(enums.PurchaseStatusPaid) {
		t.Fatalf("purchase must settle, got status %s", settled.Purchase.Status)
	}
}

func TestPayInstallmentPlanWithGapSettles(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	detail, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID: 1,
		Quantity:  1,
		Mode:      ModePlan,
		Plan: []rules.PlanEntry{
			{Amount: decimal.RequireFromString("50.00"), DaysAfter: 0},
			{Amount: decimal.RequireFromString("49.99"), DaysAfter: 30},
		},
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	sum := decimal.Zero
	for _, leg := range detail.Installments {
		sum = sum.Add(leg.Amount)
	}
	if !sum.Equal(detail.Purchase.TotalAmount) {
		t.Fatalf("installment sum %s != total %s at creation", sum, detail.Purchase.TotalAmount)
	}

	var last PaymentResult
	for _, leg := range detail.Installments {
		last, err = svc.PayInstallment(ctx, owner, leg.ID)
		if err != nil {
			t.Fatalf("pay installment #%d: %v", leg.InstallmentNo, err)
		}
	}

	if !last.FullyPaid || last.Purchase.Status != string(enums.PurchaseStatusPaid) {
		t.Fatalf("every installment paid, but purchase status %s due %s",
			last.Purchase.Status, last.Purchase.DueAmount)
	}
	if !last.Purchase.DueAmount.IsZero() {
		t.Fatalf("due must reach zero, got %s", last.Purchase.DueAmount)
	}
}

func TestPayInstallmentAuthorization(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	detail, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID:  1,
		Quantity:   2,
		PaidAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	pending := detail.Installments[1]

	if _, err := svc.PayInstallment(ctx, customer(6), pending.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger pay: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.PayInstallment(ctx, admin(), pending.ID); err != nil {
		t.Fatalf("admin pay: %v", err)
	}
	if _, err := svc.PayInstallment(ctx, owner, 404); !errors.Is(err, ErrInstallmentNotFound) {
		t.Fatalf("missing installment: expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestListPurchasesScoping(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()

	for _, userID := range []int64{5, 5, 6} {
		if _, err := svc.CreatePurchase(ctx, customer(userID), CreatePurchaseInput{
			ProductID:  1,
			Quantity:   1,
			PaidAmount: decimal.RequireFromString("20.00"),
		}); err != nil {
			t.Fatalf("create purchase for %d: %v", userID, err)
		}
	}

	records, page, err := svc.ListPurchases(ctx, customer(5), PurchaseListInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(records) != 2 || page.Total != 2 {
		t.Fatalf("customer must only see own purchases: got %d (total %d)", len(records), page.Total)
	}
	for _, detail := range records {
		if detail.Purchase.UserID != 5 {
			t.Fatalf("customer listing leaked purchase of user %d", detail.Purchase.UserID)
		}
		if len(detail.Installments) != 2 {
			t.Fatalf("expected 2 embedded installments, got %d", len(detail.Installments))
		}
	}

	records, page, err = svc.ListPurchases(ctx, admin(), PurchaseListInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list as admin: %v", err)
	}
	if len(records) != 3 || page.Total != 3 {
		t.Fatalf("admin must see all purchases: got %d (total %d)", len(records), page.Total)
	}

	records, _, err = svc.ListPurchases(ctx, admin(), PurchaseListInput{UserID: 6, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list as admin with filter: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("admin user filter: expected 1, got %d", len(records))
	}

	if _, _, err := svc.ListPurchases(ctx, admin(), PurchaseListInput{Status: "bogus"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bogus status: expected ErrValidation, got %v", err)
	}
}

func TestGetPurchaseScoping(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()
	owner := customer(5)

	created, err := svc.CreatePurchase(ctx, owner, CreatePurchaseInput{
		ProductID:  1,
		Quantity:   2,
		PaidAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	detail, err := svc.GetPurchase(ctx, owner, created.Purchase.ID)
	if err != nil {
		t.Fatalf("get as owner: %v", err)
	}
	if len(detail.Installments) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(detail.Installments))
	}

	if _, err := svc.GetPurchase(ctx, customer(6), created.Purchase.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger get: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetPurchase(ctx, owner, 404); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("missing purchase: expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestListInstallmentsScoping(t *testing.T) {
	svc, _, _ := newLedgerForTest()
	ctx := context.Background()

	for _, userID := range []int64{5, 6} {
		if _, err := svc.CreatePurchase(ctx, customer(userID), CreatePurchaseInput{
			ProductID:  1,
			Quantity:   2,
			PaidAmount: decimal.RequireFromString("50.00"),
		}); err != nil {
			t.Fatalf("create purchase for %d: %v", userID, err)
		}
	}

	records, _, err := svc.ListInstallments(ctx, customer(5), InstallmentListInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list as customer: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("customer must only see own installments: got %d", len(records))
	}

	records, _, err = svc.ListInstallments(ctx, admin(), InstallmentListInput{
		Status: string(enums.InstallmentStatusPending), Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list pending as admin: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 pending installments across users, got %d", len(records))
	}
}
