package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var (
	ErrValidation        = errors.New("validation error")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNameTaken = errors.New("category name already exists")
	ErrCategoryInUse     = errors.New("category has products")
	ErrProductNotFound   = errors.New("product not found")
)

type CategoryStore interface {
	Create(ctx context.Context, name, description string) (pgrepo.CategoryRecord, error)
	FindByID(ctx context.Context, categoryID int64) (pgrepo.CategoryRecord, error)
	List(ctx context.Context, limit, offset int) ([]pgrepo.CategoryRecord, int64, error)
	Update(ctx context.Context, categoryID int64, name, description string) (pgrepo.CategoryRecord, error)
	Delete(ctx context.Context, categoryID int64) error
}

type ProductStore interface {
	Create(ctx context.Context, categoryID int64, name, description string, price decimal.Decimal, stock int) (pgrepo.ProductRecord, error)
	FindByID(ctx context.Context, productID int64) (pgrepo.ProductRecord, error)
	List(ctx context.Context, categoryID int64, limit, offset int) ([]pgrepo.ProductRecord, int64, error)
	Update(ctx context.Context, productID int64, name, description string, price decimal.Decimal, stock int) (pgrepo.ProductRecord, error)
	Delete(ctx context.Context, productID int64) error
}

type Service struct {
	categories CategoryStore
	products   ProductStore
}

type Dependencies struct {
	Categories CategoryStore
	Products   ProductStore
}

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

type Page struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

func NewService(deps Dependencies) *Service {
	return &Service{
		categories: deps.Categories,
		products:   deps.Products,
	}
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (pgrepo.CategoryRecord, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return pgrepo.CategoryRecord{}, ErrValidation
	}

	record, err := s.categories.Create(ctx, name, strings.TrimSpace(in.Description))
	if err != nil {
		if errors.Is(err, pgrepo.ErrCategoryNameTaken) {
			return pgrepo.CategoryRecord{}, ErrCategoryNameTaken
		}
		return pgrepo.CategoryRecord{}, fmt.Errorf("create category: %w", err)
	}
	return record, nil
}

func (s *Service) GetCategory(ctx context.Context, categoryID int64) (pgrepo.CategoryRecord, error) {
	if categoryID <= 0 {
		return pgrepo.CategoryRecord{}, ErrValidation
	}
	record, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCategoryNotFound) {
			return pgrepo.CategoryRecord{}, ErrCategoryNotFound
		}
		return pgrepo.CategoryRecord{}, fmt.Errorf("find category: %w", err)
	}
	return record, nil
}

func (s *Service) ListCategories(ctx context.Context, page, pageSize int) ([]pgrepo.CategoryRecord, Page, error) {
	limit, offset, meta := clampPage(page, pageSize)
	records, total, err := s.categories.List(ctx, limit, offset)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list categories: %w", err)
	}
	return records, finishPage(meta, total), nil
}

func (s *Service) UpdateCategory(ctx context.Context, categoryID int64, in CategoryInput) (pgrepo.CategoryRecord, error) {
	name := strings.TrimSpace(in.Name)
	if categoryID <= 0 || name == "" {
		return pgrepo.CategoryRecord{}, ErrValidation
	}

	record, err := s.categories.Update(ctx, categoryID, name, strings.TrimSpace(in.Description))
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrCategoryNotFound):
			return pgrepo.CategoryRecord{}, ErrCategoryNotFound
		case errors.Is(err, pgrepo.ErrCategoryNameTaken):
			return pgrepo.CategoryRecord{}, ErrCategoryNameTaken
		}
		return pgrepo.CategoryRecord{}, fmt.Errorf("update category: %w", err)
	}
	return record, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return ErrValidation
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrCategoryNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, pgrepo.ErrCategoryInUse):
			return ErrCategoryInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (pgrepo.ProductRecord, error) {
	if err := validateProductInput(in); err != nil {
		return pgrepo.ProductRecord{}, err
	}

	record, err := s.products.Create(ctx, in.CategoryID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Description), in.Price, in.Stock)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCategoryNotFound) {
			return pgrepo.ProductRecord{}, ErrCategoryNotFound
		}
		return pgrepo.ProductRecord{}, fmt.Errorf("create product: %w", err)
	}
	return record, nil
}

func (s *Service) GetProduct(ctx context.Context, productID int64) (pgrepo.ProductRecord, error) {
	if productID <= 0 {
		return pgrepo.ProductRecord{}, ErrValidation
	}
	record, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProductNotFound) {
			return pgrepo.ProductRecord{}, ErrProductNotFound
		}
		return pgrepo.ProductRecord{}, fmt.Errorf("find product: %w", err)
	}
	return record, nil
}

// ListProducts returns one page of products, optionally scoped to a category.
// categoryID zero means no filter.
func (s *Service) ListProducts(ctx context.Context, categoryID int64, page, pageSize int) ([]pgrepo.ProductRecord, Page, error) {
	if categoryID < 0 {
		return nil, Page{}, ErrValidation
	}
	limit, offset, meta := clampPage(page, pageSize)
	records, total, err := s.products.List(ctx, categoryID, limit, offset)
	if err != nil {
		return nil, Page{}, fmt.Errorf("list products: %w", err)
	}
	return records, finishPage(meta, total), nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID int64, in ProductInput) (pgrepo.ProductRecord, error) {
	if productID <= 0 {
		return pgrepo.ProductRecord{}, ErrValidation
	}
	if err := validateProductInput(in); err != nil {
		return pgrepo.ProductRecord{}, err
	}

	record, err := s.products.Update(ctx, productID, strings.TrimSpace(in.Name), strings.TrimSpace(in.Description), in.Price, in.Stock)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProductNotFound) {
			return pgrepo.ProductRecord{}, ErrProductNotFound
		}
		return pgrepo.ProductRecord{}, fmt.Errorf("update product: %w", err)
	}
	return record, nil
}

func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return ErrValidation
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, pgrepo.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func validateProductInput(in ProductInput) error {
	if in.CategoryID <= 0 || strings.TrimSpace(in.Name) == "" {
		return ErrValidation
	}
	if !in.Price.IsPositive() {
		return ErrValidation
	}
	if in.Stock < 0 {
		return ErrValidation
	}
	return nil
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
