package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"tryon-backend/internal/models"
	"tryon-backend/internal/store"
)

type QRHandler struct {
	store   *store.Store
	baseURL string
}

func NewQRHandler(st *store.Store, baseURL string) *QRHandler {
	return &QRHandler{
		store:   st,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GenerateQR renders the QR code customers scan to reach the product's
// request form.
func (h *QRHandler) GenerateQR(c *gin.Context) {
	products, err := h.store.Products.Load()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load products",
			Message: err.Error(),
		})
		return
	}

	id := c.Param("product_id")
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "product not found"})
		return
	}

	formURL := fmt.Sprintf("%s/form/%s", h.baseURL, id)
	png, err := qrcode.Encode(formURL, qrcode.Low, 290)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to generate qr code",
			Message: err.Error(),
		})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
