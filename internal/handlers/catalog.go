package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tryon-backend/internal/models"
	"tryon-backend/internal/store"
)

type CatalogHandler struct {
	store *store.Store
}

func NewCatalogHandler(st *store.Store) *CatalogHandler {
	return &CatalogHandler{store: st}
}

func (h *CatalogHandler) ListEntries(c *gin.Context) {
	entries, err := h.store.Catalog.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load catalog",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *CatalogHandler) CreateEntry(c *gin.Context) {
	var payload models.CatalogPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid catalog payload",
			Message: err.Error(),
		})
		return
	}

	entry := models.CatalogProduct{
		ID:          uuid.New().String(),
		Barcode:     payload.Barcode,
		Brand:       payload.Brand,
		Description: payload.Description,
		Price:       payload.Price,
		Inventory:   payload.Inventory,
		CreatedAt:   time.Now(),
	}

	if _, err := h.store.Catalog.Update(func(entries []models.CatalogProduct) ([]models.CatalogProduct, error) {
		return append(entries, entry), nil
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save catalog entry",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *CatalogHandler) UpdateEntry(c *gin.Context) {
	var payload models.CatalogPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid catalog payload",
			Message: err.Error(),
		})
		return
	}

	id := c.Param("entry_id")
	var updated *models.CatalogProduct

	if _, err := h.store.Catalog.Update(func(entries []models.CatalogProduct) ([]models.CatalogProduct, error) {
		for i := range entries {
			if entries[i].ID != id {
				continue
			}
			entries[i].Barcode = payload.Barcode
			entries[i].Brand = payload.Brand
			entries[i].Description = payload.Description
			entries[i].Price = payload.Price
			entries[i].Inventory = payload.Inventory
			updated = &entries[i]
			return entries, nil
		}
		return nil, store.ErrNoChange
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save catalog entry",
			Message: err.Error(),
		})
		return
	}

	if updated == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "catalog entry not found"})
		return
	}
	c.JSON(http.StatusOK, *updated)
}

func (h *CatalogHandler) DeleteEntry(c *gin.Context) {
	id := c.Param("entry_id")

	if _, err := h.store.Catalog.Update(func(entries []models.CatalogProduct) ([]models.CatalogProduct, error) {
		kept := make([]models.CatalogProduct, 0, len(entries))
		for _, e := range entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		return kept, nil
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete catalog entry",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// LookupEntry resolves a barcode to the first matching catalog entry.
// Barcodes are not guaranteed unique; first match wins.
func (h *CatalogHandler) LookupEntry(c *gin.Context) {
	entries, err := h.store.Catalog.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load catalog",
			Message: err.Error(),
		})
		return
	}

	barcode := c.Param("barcode")
	for _, e := range entries {
		if e.Barcode == barcode {
			c.JSON(http.StatusOK, e)
			return
		}
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "catalog entry not found"})
}
