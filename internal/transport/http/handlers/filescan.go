package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anmol-chhetri-G/Security-Web/internal/usecase"
)

// FileScanHandler exposes the local file analysis endpoint.
type FileScanHandler struct {
	scanner *usecase.FileScanService
}

// NewFileScanHandler constructs FileScanHandler.
func NewFileScanHandler(scanner *usecase.FileScanService) *FileScanHandler {
	return &FileScanHandler{scanner: scanner}
}

// RegisterRoutes binds the file scanner routes.
func (h *FileScanHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/scan", h.scan)
}

// Scan godoc
// @Summary Analyze an uploaded file with local heuristics
// @Tags FileScanner
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to analyze"
// @Success 200 {object} usecase.FileScanResult
// @Failure 400 {object} ErrorResponse
// @Router /api/file-scanner/scan [post]
func (h *FileScanHandler) scan(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "No file uploaded"))
		return
	}

	if fileHeader.Size > usecase.MaxScanFileSize {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "File size exceeds 32MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, usecase.MaxScanFileSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to read uploaded file"))
		return
	}

	result, err := h.scanner.Scan(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		RespondWithMappedError(c, err, nil,
			http.StatusInternalServerError, "File scan failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
