package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tryon-backend/internal/lifecycle"
	"tryon-backend/internal/models"
)

type RequestsHandler struct {
	manager        *lifecycle.Manager
	maxUploadBytes int64
}

func NewRequestsHandler(manager *lifecycle.Manager, maxUploadBytes int64) *RequestsHandler {
	return &RequestsHandler{
		manager:        manager,
		maxUploadBytes: maxUploadBytes,
	}
}

// readPhoto pulls the optional selfie file out of the multipart form. A
// missing file is fine; a read failure is reported so the handler can log
// it, but never blocks the submission.
func (h *RequestsHandler) readPhoto(c *gin.Context) (string, []byte) {
	fileHeader, err := c.FormFile("selfie")
	if err != nil {
		return "", nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", nil
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil
	}
	return fileHeader.Filename, data
}

func (h *RequestsHandler) SubmitTryOn(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	sub := lifecycle.TryOnSubmission{
		ProductID: c.PostForm("product_id"),
		Name:      c.PostForm("name"),
		Size:      c.PostForm("size"),
	}
	if sub.ProductID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "product_id is required"})
		return
	}
	sub.PhotoName, sub.Photo = h.readPhoto(c)

	req, err := h.manager.CreateTryOn(sub)
	if errors.Is(err, lifecycle.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *RequestsHandler) ListTryOns(c *gin.Context) {
	requests, err := h.manager.ListTryOns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load requests",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *RequestsHandler) DeleteTryOn(c *gin.Context) {
	if err := h.manager.DeleteTryOn(c.Param("request_id")); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete request",
			Message: err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RequestsHandler) SubmitHelp(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	sub := lifecycle.HelpSubmission{
		RequestType: c.PostForm("request_type"),
		Name:        c.PostForm("name"),
		Barcode:     c.PostForm("barcode"),
	}
	sub.PhotoName, sub.Photo = h.readPhoto(c)

	req, err := h.manager.CreateHelp(sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create help request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, req)
}

func (h *RequestsHandler) ListHelp(c *gin.Context) {
	requests, err := h.manager.ListHelp()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to load help requests",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *RequestsHandler) DeleteHelp(c *gin.Context) {
	if err := h.manager.DeleteHelp(c.Param("request_id")); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to delete help request",
			Message: err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}
