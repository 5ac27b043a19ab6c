// Package handler contains the HTTP controllers.
package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/diegopaiva1/file-search-poc/internal/service"
	"github.com/diegopaiva1/file-search-poc/pkg/log"

	"github.com/gin-gonic/gin"
)

// FileHandler serves the file management API: upload, listing, retrieval,
// download and deletion.
type FileHandler struct {
	fileService service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileService service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload accepts a multipart upload (field "file") and hands the buffered
// bytes to the ingestion service.
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file'"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("failed to open uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Error("failed to buffer uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.fileService.Upload(c.Request.Context(), data, fileHeader.Filename, contentType)
	if err != nil {
		if errors.Is(err, service.ErrEmptyFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("upload failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}

// List returns a newest-first page of stored files.
func (h *FileHandler) List(c *gin.Context) {
	limit, err := parseIntParam(c, "limit", 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return
	}
	offset, err := parseIntParam(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset parameter"})
		return
	}

	result, err := h.fileService.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list files", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": result})
}

// Get returns the metadata of a single file.
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.fileService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		log.Error("failed to get file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": file})
}

// Download streams the stored bytes back with the original filename and
// content type for disposition.
func (h *FileHandler) Download(c *gin.Context) {
	file, data, err := h.fileService.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		log.Error("failed to download file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download file"})
		return
	}

	disposition := fmt.Sprintf("attachment; filename=%q", url.PathEscape(file.OriginalName))
	c.Header("Content-Disposition", disposition)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, file.MimeType, data)
}

// Delete removes a file's blob and metadata.
func (h *FileHandler) Delete(c *gin.Context) {
	err := h.fileService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		log.Error("failed to delete file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "file deleted successfully"})
}

// parseIntParam reads an optional non-negative integer query parameter.
func parseIntParam(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return value, nil
}
