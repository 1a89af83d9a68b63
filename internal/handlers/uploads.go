package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"tryon-backend/internal/models"
)

type UploadsHandler struct {
	uploadDir string
}

func NewUploadsHandler(uploadDir string) *UploadsHandler {
	return &UploadsHandler{uploadDir: uploadDir}
}

// ServeFile serves a stored selfie. filepath.Base strips any path elements
// so the route cannot escape the upload directory.
func (h *UploadsHandler) ServeFile(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if filename == "." || filename == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid filename"})
		return
	}

	path := filepath.Join(h.uploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "file not found"})
		return
	}
	c.File(path)
}
