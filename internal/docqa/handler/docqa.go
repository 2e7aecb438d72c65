// Package handler provides HTTP handlers for the docqa service.
package handler

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/docqa/internal/docqa/biz"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/response"
)

// DocQAHandler handles docqa HTTP requests.
type DocQAHandler struct {
	service        biz.Service
	maxUploadBytes int64
	requestTimeout time.Duration
}

// NewDocQAHandler creates a new DocQAHandler. requestTimeout bounds the
// processing time of upload and ask requests.
func NewDocQAHandler(service biz.Service, maxUploadBytes int64, requestTimeout time.Duration) *DocQAHandler {
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}
	return &DocQAHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		requestTimeout: requestTimeout,
	}
}

// UploadResponse is the success payload of POST /upload-pdf.
type UploadResponse struct {
	Status         string   `json:"status"`
	Filename       string   `json:"filename"`
	PagesProcessed int      `json:"pages_processed"`
	TextLength     int      `json:"text_length"`
	ChunksStored   int      `json:"chunks_stored"`
	FailedIDs      []string `json:"failed_ids,omitempty"`
}

// UploadPDF handles POST /upload-pdf. The multipart field name is "file".
// Oversized uploads are rejected from the declared size before the body
// is read into memory.
func (h *DocQAHandler) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, errors.ErrBadRequest.WithMessage("Missing multipart field 'file'").WithCause(err))
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		response.Fail(c, errors.ErrFileTooLarge.WithMessagef(
			"File size %d bytes exceeds the limit of %d bytes", fileHeader.Size, h.maxUploadBytes))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, errors.ErrBadRequest.WithCause(err))
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		response.Fail(c, errors.ErrBadRequest.WithCause(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	summary, err := h.service.Ingest(ctx, fileHeader.Filename, data)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, UploadResponse{
		Status:         response.StatusSuccess,
		Filename:       summary.Filename,
		PagesProcessed: summary.PagesProcessed,
		TextLength:     summary.TextLength,
		ChunksStored:   summary.ChunksStored,
		FailedIDs:      summary.FailedIDs,
	})
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the success payload of POST /ask.
type AskResponse struct {
	Status        string              `json:"status"`
	Answer        string              `json:"answer"`
	Mode          string              `json:"mode"`
	SourcesFound  int                 `json:"sources_found"`
	ContextLength int                 `json:"context_length"`
	Sources       []model.ChunkSource `json:"sources"`
}

// Ask handles POST /ask. An empty collection yields a sources_found=0
// result, not an error.
func (h *DocQAHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrBadRequest.WithCause(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.service.Query(ctx, req.Question)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, AskResponse{
		Status:        response.StatusSuccess,
		Answer:        result.Answer,
		Mode:          result.Mode,
		SourcesFound:  result.SourcesFound,
		ContextLength: result.ContextLength,
		Sources:       result.Sources,
	})
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Store            string `json:"store"`
	Collection       string `json:"collection"`
	CollectionExists bool   `json:"collection_exists"`
	ChunkCount       int64  `json:"chunk_count"`
}

// Health handles GET /health.
func (h *DocQAHandler) Health(c *gin.Context) {
	status, err := h.service.Health(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, HealthResponse{
		Status:           response.StatusSuccess,
		Store:            status.Store,
		Collection:       status.Collection,
		CollectionExists: status.CollectionExists,
		ChunkCount:       status.ChunkCount,
	})
}

// ClearResponse is the success payload of DELETE /clear-collection.
type ClearResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ClearCollection handles DELETE /clear-collection. Clearing an absent
// collection succeeds.
func (h *DocQAHandler) ClearCollection(c *gin.Context) {
	if err := h.service.ClearCollection(c.Request.Context()); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, ClearResponse{
		Status:  response.StatusSuccess,
		Message: "Collection cleared",
	})
}
