package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tryon-backend/internal/models"
	"tryon-backend/internal/store"
)

type ProductsHandler struct {
	store          *store.Store
	defaultTimeout int
}

func NewProductsHandler(st *store.Store, defaultTimeoutMinutes int) *ProductsHandler {
	return &ProductsHandler{
		store:          st,
		defaultTimeout: defaultTimeoutMinutes,
	}
}

// defaultPayload carries the field defaults applied when the request body
// omits them; binding into the prefilled struct keeps absent fields intact.
func (h *ProductsHandler) defaultPayload() models.ProductPayload {
	return models.ProductPayload{
		QRSizeType:      models.QRSizePercentage,
		QRSizeValue:     50,
		TimeoutMinutes:  h.defaultTimeout,
		ShowProductInfo: true,
	}
}

func (h *ProductsHandler) ListProducts(c *gin.Context) {
	products, err := h.store.Products.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load products",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductsHandler) GetProduct(c *gin.Context) {
	products, err := h.store.Products.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load products",
			Message: err.Error(),
		})
		return
	}

	id := c.Param("product_id")
	for _, p := range products {
		if p.ID == id {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "product not found"})
}

func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	payload := h.defaultPayload()
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid product payload",
			Message: err.Error(),
		})
		return
	}

	product := models.Product{
		ID:              uuid.New().String(),
		Name:            payload.Name,
		Message:         payload.Message,
		QRSizeType:      payload.QRSizeType,
		QRSizeValue:     payload.QRSizeValue,
		QROffsetX:       payload.QROffsetX,
		QROffsetY:       payload.QROffsetY,
		TimeoutMinutes:  payload.TimeoutMinutes,
		ShowProductInfo: payload.ShowProductInfo,
		CreatedAt:       time.Now(),
	}

	if _, err := h.store.Products.Update(func(products []models.Product) ([]models.Product, error) {
		return append(products, product), nil
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save product",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	payload := h.defaultPayload()
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid product payload",
			Message: err.Error(),
		})
		return
	}

	id := c.Param("product_id")
	var updated *models.Product

	if _, err := h.store.Products.Update(func(products []models.Product) ([]models.Product, error) {
		for i := range products {
			if products[i].ID != id {
				continue
			}
			products[i].Name = payload.Name
			products[i].Message = payload.Message
			products[i].QRSizeType = payload.QRSizeType
			products[i].QRSizeValue = payload.QRSizeValue
			products[i].QROffsetX = payload.QROffsetX
			products[i].QROffsetY = payload.QROffsetY
			products[i].TimeoutMinutes = payload.TimeoutMinutes
			products[i].ShowProductInfo = payload.ShowProductInfo
			updated = &products[i]
			return products, nil
		}
		return nil, store.ErrNoChange
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to save product",
			Message: err.Error(),
		})
		return
	}

	if updated == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "product not found"})
		return
	}
	c.JSON(http.StatusOK, *updated)
}

func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("product_id")

	if _, err := h.store.Products.Update(func(products []models.Product) ([]models.Product, error) {
		kept := make([]models.Product, 0, len(products))
		for _, p := range products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	}); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete product",
			Message: err.Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}
