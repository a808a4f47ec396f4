package handlers

import (
	"errors"
	"net/http"

	catalogsvc "github.com/pkaravayeu/paylater/internal/services/catalog"
	"github.com/pkaravayeu/paylater/internal/transport/http/dto"
	httperrors "github.com/pkaravayeu/paylater/internal/transport/http/errors"
)

type CategoryHandler struct {
	catalog *catalogsvc.Service
}

func NewCategoryHandler(catalog *catalogsvc.Service) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	var req dto.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	record, err := h.catalog.CreateCategory(r.Context(), catalogsvc.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleCategoryError(w, err, "failed to create category")
		return
	}

	httperrors.Write(w, http.StatusCreated, categoryResponse(record))
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	categoryID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
		return
	}

	record, err := h.catalog.GetCategory(r.Context(), categoryID)
	if err != nil {
		handleCategoryError(w, err, "failed to load category")
		return
	}

	httperrors.Write(w, http.StatusOK, categoryResponse(record))
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	page, pageSize := pageQuery(r)
	records, meta, err := h.catalog.ListCategories(r.Context(), page, pageSize)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list categories")
		return
	}

	items := make([]dto.CategoryResponse, 0, len(records))
	for _, record := range records {
		items = append(items, categoryResponse(record))
	}
	httperrors.Write(w, http.StatusOK, dto.CategoryListResponse{Items: items, Meta: catalogPageMeta(meta)})
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	categoryID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
		return
	}

	var req dto.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	record, err := h.catalog.UpdateCategory(r.Context(), categoryID, catalogsvc.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleCategoryError(w, err, "failed to update category")
		return
	}

	httperrors.Write(w, http.StatusOK, categoryResponse(record))
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	categoryID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), categoryID); err != nil {
		handleCategoryError(w, err, "failed to delete category")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteResponse{OK: true})
}

func handleCategoryError(w http.ResponseWriter, err error, internalMessage string) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid category payload")
	case errors.Is(err, catalogsvc.ErrCategoryNotFound):
		writeNotFound(w, "CATEGORY_NOT_FOUND", "category not found")
	case errors.Is(err, catalogsvc.ErrCategoryNameTaken):
		writeConflict(w, "CATEGORY_NAME_TAKEN", "category name already exists")
	case errors.Is(err, catalogsvc.ErrCategoryInUse):
		writeConflict(w, "CATEGORY_IN_USE", "category still has products")
	default:
		writeInternal(w, "INTERNAL_ERROR", internalMessage)
	}
}
