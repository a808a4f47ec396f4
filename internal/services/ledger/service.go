package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	"github.com/pkaravayeu/paylater/internal/domain/rules"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Mode selects how a purchase total is cut into installments.
type Mode string

const (
	// ModeSplit takes an upfront amount now and defers the remainder.
	ModeSplit Mode = "split"
	// ModePlan follows an explicit caller-provided schedule.
	ModePlan Mode = "plan"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrProductNotFound     = errors.New("product not found")
	ErrOutOfStock          = errors.New("insufficient product stock")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrInstallmentPaid     = errors.New("installment already paid")
	ErrForbidden           = errors.New("forbidden")
)

type ProductStore interface {
	FindByID(ctx context.Context, productID int64) (pgrepo.ProductRecord, error)
}

type PurchaseStore interface {
	CreateWithInstallments(
		ctx context.Context,
		userID, productID int64,
		quantity int,
		total, paid, due decimal.Decimal,
		status string,
		installments []pgrepo.NewInstallmentRow,
	) (pgrepo.PurchaseRecord, []pgrepo.InstallmentRecord, error)
	FindByID(ctx context.Context, purchaseID int64) (pgrepo.PurchaseRecord, error)
	List(ctx context.Context, filter pgrepo.PurchaseFilter) ([]pgrepo.PurchaseRecord, int64, error)
}

type InstallmentStore interface {
	FindByID(ctx context.Context, installmentID int64) (pgrepo.InstallmentRecord, error)
	ListByPurchase(ctx context.Context, purchaseID int64) ([]pgrepo.InstallmentRecord, error)
	Pay(ctx context.Context, installmentID int64, paymentRef string, now time.Time) (pgrepo.InstallmentRecord, pgrepo.PurchaseRecord, error)
	List(ctx context.Context, filter pgrepo.InstallmentFilter) ([]pgrepo.InstallmentRecord, int64, error)
}

// Notifier delivers a user-facing message. Delivery is best effort and never
// blocks a ledger write.
type Notifier interface {
	Send(ctx context.Context, userID int64, message string) error
}

type Service struct {
	products     ProductStore
	purchases    PurchaseStore
	installments InstallmentStore
	notifier     Notifier
	now          func() time.Time
}

type Dependencies struct {
	Products     ProductStore
	Purchases    PurchaseStore
	Installments InstallmentStore
}

type CreatePurchaseInput struct {
	ProductID  int64
	Quantity   int
	PaidAmount decimal.Decimal
	Mode       Mode
	Plan       []rules.PlanEntry
}

type PurchaseDetail struct {
	Purchase     pgrepo.PurchaseRecord
	Installments []pgrepo.InstallmentRecord
}

type PaymentResult struct {
	Installment pgrepo.InstallmentRecord
	Purchase    pgrepo.PurchaseRecord
	FullyPaid   bool
}

type PurchaseListInput struct {
	UserID      int64
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

type InstallmentListInput struct {
	UserID   int64
	Status   string
	Unpaid   bool
	DueFrom  *time.Time
	DueTo    *time.Time
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

type Page struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func NewService(deps Dependencies) *Service {
	return &Service{
		products:     deps.Products,
		purchases:    deps.Purchases,
		installments: deps.Installments,
		now:          time.Now,
	}
}

func (s *Service) AttachNotifier(notifier Notifier) {
	s.notifier = notifier
}

// CreatePurchase prices the order, allocates its installment schedule and
// writes everything in one transaction. The stock decrement inside that
// transaction is what rejects concurrent oversells.
func (s *Service) CreatePurchase(ctx context.Context, identity authsvc.Identity, in CreatePurchaseInput) (PurchaseDetail, error) {
	if identity.UserID <= 0 {
		return PurchaseDetail{}, ErrValidation
	}
	if in.ProductID <= 0 || in.Quantity < 1 {
		return PurchaseDetail{}, ErrValidation
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProductNotFound) {
			return PurchaseDetail{}, ErrProductNotFound
		}
		return PurchaseDetail{}, fmt.Errorf("find product: %w", err)
	}
	if product.Stock < in.Quantity {
		return PurchaseDetail{}, ErrOutOfStock
	}

	total := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
	now := s.now().UTC()

	allocations, err := s.allocate(total, in, now)
	if err != nil {
		return PurchaseDetail{}, err
	}

	paid := rules.PaidPortion(allocations)
	due := total.Sub(paid)
	status := enums.PurchaseStatusPending
	if due.Sign() <= 0 {
		status = enums.PurchaseStatusPaid
	}

	rows := make([]pgrepo.NewInstallmentRow, 0, len(allocations))
	for _, a := range allocations {
		row := pgrepo.NewInstallmentRow{
			No:      a.No,
			Amount:  a.Amount,
			DueDate: a.DueDate,
			Status:  string(enums.InstallmentStatusPending),
		}
		if a.Paid {
			paidAt := now
			row.Status = string(enums.InstallmentStatusPaid)
			row.PaidDate = &paidAt
		}
		rows = append(rows, row)
	}

	purchase, installments, err := s.purchases.CreateWithInstallments(
		ctx, identity.UserID, product.ID, in.Quantity, total, paid, due, string(status), rows,
	)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrProductNotFound):
			return PurchaseDetail{}, ErrProductNotFound
		case errors.Is(err, pgrepo.ErrStockConflict):
			return PurchaseDetail{}, ErrOutOfStock
		}
		return PurchaseDetail{}, fmt.Errorf("create purchase: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, identity.UserID, fmt.Sprintf(
			"Purchase #%d created: %s, %d installment(s), %s due.",
			purchase.ID, purchase.TotalAmount.StringFixed(2), len(installments), purchase.DueAmount.StringFixed(2),
		))
	}

	return PurchaseDetail{Purchase: purchase, Installments: installments}, nil
}

func (s *Service) allocate(total decimal.Decimal, in CreatePurchaseInput, now time.Time) ([]rules.Allocation, error) {
	switch in.Mode {
	case ModeSplit, "":
		// Plan entries do not belong to split mode; mixing the policies is
		// rejected rather than silently ignored.
		if len(in.Plan) > 0 {
			return nil, ErrValidation
		}
		allocations, err := rules.AllocateSplit(total, in.PaidAmount, now)
		if err != nil {
			return nil, ErrValidation
		}
		return allocations, nil
	case ModePlan:
		if in.PaidAmount.Sign() > 0 {
			return nil, ErrValidation
		}
		allocations, err := rules.AllocatePlan(total, in.Plan, now)
		if err != nil {
			return nil, ErrValidation
		}
		return allocations, nil
	default:
		return nil, ErrValidation
	}
}

// PayInstallment settles one installment for its owner. The repository holds
// row locks while it re-checks the paid state, so double pays lose the race
// and surface as ErrInstallmentPaid.
func (s *Service) PayInstallment(ctx context.Context, identity authsvc.Identity, installmentID int64) (PaymentResult, error) {
	if installmentID <= 0 {
		return PaymentResult{}, ErrValidation
	}

	installment, err := s.installments.FindByID(ctx, installmentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrInstallmentNotFound) {
			return PaymentResult{}, ErrInstallmentNotFound
		}
		return PaymentResult{}, fmt.Errorf("find installment: %w", err)
	}

	purchase, err := s.purchases.FindByID(ctx, installment.PurchaseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return PaymentResult{}, ErrPurchaseNotFound
		}
		return PaymentResult{}, fmt.Errorf("find purchase: %w", err)
	}

	if err := authsvc.AuthorizeOwner(identity, purchase.UserID); err != nil {
		return PaymentResult{}, ErrForbidden
	}

	if installment.Status == string(enums.InstallmentStatusPaid) {
		return PaymentResult{}, ErrInstallmentPaid
	}

	paymentRef := uuid.NewString()
	paidInstallment, updatedPurchase, err := s.installments.Pay(ctx, installmentID, paymentRef, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrInstallmentNotFound):
			return PaymentResult{}, ErrInstallmentNotFound
		case errors.Is(err, pgrepo.ErrInstallmentPaid):
			return PaymentResult{}, ErrInstallmentPaid
		case errors.Is(err, pgrepo.ErrPurchaseNotFound):
			return PaymentResult{}, ErrPurchaseNotFound
		}
		return PaymentResult{}, fmt.Errorf("pay installment: %w", err)
	}

	fullyPaid := updatedPurchase.Status == string(enums.PurchaseStatusPaid)
	if s.notifier != nil {
		message := fmt.Sprintf("Installment #%d of purchase #%d paid: %s.",
			paidInstallment.InstallmentNo, updatedPurchase.ID, paidInstallment.Amount.StringFixed(2))
		if fullyPaid {
			message = fmt.Sprintf("Purchase #%d fully paid. Thank you!", updatedPurchase.ID)
		}
		_ = s.notifier.Send(ctx, purchase.UserID, message)
	}

	return PaymentResult{
		Installment: paidInstallment,
		Purchase:    updatedPurchase,
		FullyPaid:   fullyPaid,
	}, nil
}

func (s *Service) GetPurchase(ctx context.Context, identity authsvc.Identity, purchaseID int64) (PurchaseDetail, error) {
	if purchaseID <= 0 {
		return PurchaseDetail{}, ErrValidation
	}

	purchase, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return PurchaseDetail{}, ErrPurchaseNotFound
		}
		return PurchaseDetail{}, fmt.Errorf("find purchase: %w", err)
	}

	if err := authsvc.AuthorizeOwner(identity, purchase.UserID); err != nil {
		return PurchaseDetail{}, ErrForbidden
	}

	installments, err := s.installments.ListByPurchase(ctx, purchaseID)
	if err != nil {
		return PurchaseDetail{}, fmt.Errorf("list purchase installments: %w", err)
	}

	return PurchaseDetail{Purchase: purchase, Installments: installments}, nil
}

// ListPurchases returns purchases with their installment schedules embedded.
// Customers only ever see their own rows; admins may filter by user.
func (s *Service) ListPurchases(ctx context.Context, identity authsvc.Identity, in PurchaseListInput) ([]PurchaseDetail, Page, error) {
	if in.Status != "" && !enums.PurchaseStatus(in.Status).Valid() {
		return nil, Page{}, ErrValidation
	}
	if in.CreatedFrom != nil && in.CreatedTo != nil && in.CreatedTo.Before(*in.CreatedFrom) {
		return nil, Page{}, ErrValidation
	}

	filter := pgrepo.PurchaseFilter{
		Status:      in.Status,
		CreatedFrom: in.CreatedFrom,
		CreatedTo:   in.CreatedTo,
	}
	if identity.Role == enums.RoleAdmin {
		if in.UserID > 0 {
			userID := in.UserID
			filter.UserID = &userID
		}
	} else {
		userID := identity.UserID
		filter.UserID = &userID
	}

	limit, offset, meta := clampPage(in.Page, in.PageSize)
	filter.Limit = limit
	filter.Offset = offset

	records, total, err := s.purchases.List(ctx, filter)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list purchases: %w", err)
	}

	details := make([]PurchaseDetail, 0, len(records))
	for _, record := range records {
		installments, err := s.installments.ListByPurchase(ctx, record.ID)
		if err != nil {
			return nil, Page{}, fmt.Errorf("list installments for purchase %d: %w", record.ID, err)
		}
		details = append(details, PurchaseDetail{Purchase: record, Installments: installments})
	}
	return details, finishPage(meta, total), nil
}

func (s *Service) ListInstallments(ctx context.Context, identity authsvc.Identity, in InstallmentListInput) ([]pgrepo.InstallmentRecord, Page, error) {
	if in.Status != "" && !enums.InstallmentStatus(in.Status).Valid() {
		return nil, Page{}, ErrValidation
	}
	if in.DueFrom != nil && in.DueTo != nil && in.DueTo.Before(*in.DueFrom) {
		return nil, Page{}, ErrValidation
	}

	filter := pgrepo.InstallmentFilter{
		Status:   in.Status,
		Unpaid:   in.Unpaid,
		DueFrom:  in.DueFrom,
		DueTo:    in.DueTo,
		SortBy:   in.SortBy,
		SortDesc: in.SortDesc,
	}
	if identity.Role == enums.RoleAdmin {
		if in.UserID > 0 {
			userID := in.UserID
			filter.UserID = &userID
		}
	} else {
		userID := identity.UserID
		filter.UserID = &userID
	}

	limit, offset, meta := clampPage(in.Page, in.PageSize)
	filter.Limit = limit
	filter.Offset = offset

	records, total, err := s.installments.List(ctx, filter)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list installments: %w", err)
	}
	return records, finishPage(meta, total), nil
}

func clampPage(page, pageSize int) (limit, offset int, meta Page) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize, Page{Page: page, PageSize: pageSize}
}

func finishPage(meta Page, total int64) Page {
	meta.Total = total
	meta.TotalPages = int((total + int64(meta.PageSize) - 1) / int64(meta.PageSize))
	return meta
}
