package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	catalogsvc "github.com/pkaravayeu/paylater/internal/services/catalog"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type ProductHandler struct {
	catalog *catalogsvc.Service
}

func NewProductHandler(catalog *catalogsvc.Service) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	record, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		handleProductError(w, err, "failed to create product")
		return
	}

	httperrors.Write(w, http.StatusCreated, productResponse(record))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	productID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid product id")
		return
	}

	record, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		handleProductError(w, err, "failed to load product")
		return
	}

	httperrors.Write(w, http.StatusOK, productResponse(record))
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	page, pageSize := pageQuery(r)
	categoryID := parseInt64OrDefault(r.URL.Query().Get("category_id"), 0)

	records, meta, err := h.catalog.ListProducts(r.Context(), categoryID, page, pageSize)
	if err != nil {
		handleProductError(w, err, "failed to list products")
		return
	}

	items := make([]dto.ProductResponse, 0, len(records))
	for _, record := range records {
		items = append(items, productResponse(record))
	}
	httperrors.Write(w, http.StatusOK, dto.ProductListResponse{Items: items, Meta: catalogPageMeta(meta)})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	productID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid product id")
		return
	}

	input, ok := decodeProductInput(w, r)
	if !ok {
		return
	}

	record, err := h.catalog.UpdateProduct(r.Context(), productID, input)
	if err != nil {
		handleProductError(w, err, "failed to update product")
		return
	}

	httperrors.Write(w, http.StatusOK, productResponse(record))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	productID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid product id")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		handleProductError(w, err, "failed to delete product")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteResponse{OK: true})
}

func decodeProductInput(w http.ResponseWriter, r *http.Request) (catalogsvc.ProductInput, bool) {
	var req dto.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return catalogsvc.ProductInput{}, false
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "price must be a decimal string")
		return catalogsvc.ProductInput{}, false
	}

	return catalogsvc.ProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	}, true
}

func handleProductError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid product payload")
	case errors.Is(err, catalogsvc.ErrProductNotFound):
		writeNotFound(w, "PRODUCT_NOT_FOUND", "product not found")
	case errors.Is(err, catalogsvc.ErrCategoryNotFound):
		writeNotFound(w, "CATEGORY_NOT_FOUND", "category not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", internalMessage)
	}
}
