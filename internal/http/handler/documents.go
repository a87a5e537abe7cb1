package handler

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/config"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/service"
)

// downloadExpiry bounds how long a presigned download link stays valid.
const downloadExpiry = 15 * time.Minute

// ListDocuments handles GET /documents.
//
// @Summary List documents
// @Tags documents
// @Param status query string false "Filter by workflow status"
// @Param type query string false "Filter by type code"
// @Param category query string false "Filter by category"
// @Param query query string false "Search in title and description"
// @Param page query int false "Page number (1-based)"
// @Param limit query int false "Page size"
// @Success 200 {object} service.DocumentListResult
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		q := repository.ListQuery{
			Status:   c.Query("status"),
			Type:     c.Query("type"),
			Category: c.Query("category"),
			Search:   c.Query("query"),
			Page:     page,
			Limit:    limit,
		}

		res, err := svc.List(c.UserContext(), q)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// UploadDocument handles POST /documents (multipart/form-data, field name: file).
// Optional form fields title, category, description and project become
// document metadata. Size and type limits are enforced before any storage I/O.
//
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Success 201 {object} model.Document
// @Router /documents [post]
func UploadDocument(svc service.DocumentService, cfg config.UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		if cfg.MaxFileSize > 0 && fh.Size > cfg.MaxFileSize {
			return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds maximum size")
		}
		if len(cfg.AllowedTypes) > 0 {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
			allowed := false
			for _, t := range cfg.AllowedTypes {
				if ext == t {
					allowed = true
					break
				}
			}
			if !allowed {
				return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_TYPE", "file type not allowed")
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		meta := service.UploadMeta{
			Title:       c.FormValue("title"),
			Category:    c.FormValue("category"),
			Description: c.FormValue("description"),
		}
		if p := c.FormValue("project"); p != "" {
			meta.Project = &p
		}

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size, meta)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument handles GET /documents/:id.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// updateDocumentRequest is the partial edit body. Absent fields stay untouched.
type updateDocumentRequest struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	Status        *string `json:"status"`
	Description   *string `json:"description"`
	Project       *string `json:"project"`
	ExtractedText *string `json:"extracted_text"`
}

// UpdateDocument handles PUT /documents/:id. Any status transition is
// allowed as long as the target is a known workflow value.
//
// @Summary Update document metadata or status
// @Tags documents
// @Accept json
// @Success 200 {object} model.Document
// @Router /documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body updateDocumentRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		upd := repository.DocumentUpdate{
			Title:         body.Title,
			Category:      body.Category,
			Description:   body.Description,
			Project:       body.Project,
			ExtractedText: body.ExtractedText,
		}
		if body.Status != nil {
			st := model.Status(*body.Status)
			upd.Status = &st
		}

		doc, err := svc.Update(c.UserContext(), id, upd)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument handles DELETE /documents/:id. The stored file is removed
// before the database record.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument handles GET /documents/:id/download. It redirects to a
// presigned URL instead of streaming the bytes through the API.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.Download(c.UserContext(), id, downloadExpiry)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}

// serviceError translates service-level sentinels into the error envelope.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrInvalidStatus):
		return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", "invalid document status")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
