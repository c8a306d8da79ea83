package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/checkmaster/backend/internal/application/conference"
	domain "github.com/checkmaster/backend/internal/domain/conference"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadField is the multipart field carrying the invoice documents
const UploadField = "files"

// WorkspaceAPI is the conference workspace use case set served over HTTP
type WorkspaceAPI interface {
	GetWorkspace(ctx context.Context) (*conference.WorkspaceResponse, error)
	StageInvoices(ctx context.Context, docs []conference.UploadedDocument) (*conference.StageResult, error)
	RemoveStaged(ctx context.Context, accessKey string) error
	StartConference(ctx context.Context, conferente domain.Operator) (*conference.BatchResponse, error)
	GetActive(ctx context.Context) (*conference.BatchResponse, error)
	Progress(ctx context.Context) (*conference.ProgressResponse, error)
	Scan(ctx context.Context, req conference.ScanRequest) (*conference.ScanResponse, error)
	ResetItem(ctx context.Context, itemID uuid.UUID) (*conference.ScanResponse, error)
	Finalize(ctx context.Context) (*conference.FinalizeResponse, error)
	Approve(ctx context.Context, req conference.ApproveRequest) (*conference.BatchResponse, error)
	Reject(ctx context.Context) (*conference.BatchResponse, error)
	Pause(ctx context.Context) (*conference.BatchSummaryResponse, error)
	Resume(ctx context.Context, batchID uuid.UUID, confirm bool) (*conference.BatchResponse, error)
	ListPaused(ctx context.Context) ([]conference.BatchSummaryResponse, error)
	DeletePaused(ctx context.Context, batchID uuid.UUID) error
	Discard(ctx context.Context) error
}

// HistoryAPI is the read side over completed conferences
type HistoryAPI interface {
	List(ctx context.Context, filter conference.HistoryFilter) ([]conference.BatchSummaryResponse, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*conference.BatchResponse, error)
	Report(ctx context.Context, id uuid.UUID) (*conference.ReportResponse, error)
	DashboardStats(ctx context.Context, from, to *time.Time) (*conference.DashboardStatsResponse, error)
}

// ConferenceHandler handles the receiving conference endpoints
type ConferenceHandler struct {
	BaseHandler
	workspace     WorkspaceAPI
	history       HistoryAPI
	maxUploadSize int64
}

// NewConferenceHandler creates a new conference handler. maxUploadSize bounds each
// uploaded document.
func NewConferenceHandler(workspace WorkspaceAPI, history HistoryAPI, maxUploadSize int64) *ConferenceHandler {
	return &ConferenceHandler{
		workspace:     workspace,
		history:       history,
		maxUploadSize: maxUploadSize,
	}
}

// GetWorkspace returns staging, the active conference and the paused queue
// @Summary      Workspace snapshot
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.WorkspaceResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/workspace [get]
func (h *ConferenceHandler) GetWorkspace(c *gin.Context) {
	ws, err := h.workspace.GetWorkspace(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ws)
}

// StageInvoices imports the uploaded NF-e documents into staging
// @Summary      Stage NF-e documents
// @Tags         conference
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        files formData file true "NF-e XML documents"
// @Success      200 {object} dto.Response{data=conference.StageResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/staging [post]
func (h *ConferenceHandler) StageInvoices(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Expected a multipart form with invoice files")
		return
	}
	files := form.File[UploadField]
	if len(files) == 0 {
		h.Error(c, http.StatusBadRequest, shared.CodeInvalidInput, "At least one invoice document is required")
		return
	}

	docs := make([]conference.UploadedDocument, 0, len(files))
	for _, fh := range files {
		if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				fmt.Sprintf("File %s exceeds the upload limit", fh.Filename))
			return
		}
		content, err := readUpload(fh)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		docs = append(docs, conference.UploadedDocument{Name: fh.Filename, Content: content})
	}

	result, err := h.workspace.StageInvoices(c.Request.Context(), docs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return content, nil
}

// RemoveStaged drops one invoice from staging
// @Summary      Remove a staged invoice
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        access_key path string true "NF-e access key"
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/staging/{access_key} [delete]
func (h *ConferenceHandler) RemoveStaged(c *gin.Context) {
	if err := h.workspace.RemoveStaged(c.Request.Context(), c.Param("access_key")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// StartConference consolidates staging into a conference counted by the caller
// @Summary      Start a conference from staging
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} dto.Response{data=conference.BatchResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/batches [post]
func (h *ConferenceHandler) StartConference(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	batch, err := h.workspace.StartConference(c.Request.Context(), domain.Operator{ID: actor.ID, Name: actor.Name})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// GetActive returns the active conference
// @Summary      Active conference
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.BatchResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active [get]
func (h *ConferenceHandler) GetActive(c *gin.Context) {
	batch, err := h.workspace.GetActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Progress returns the counting progress of the active conference
// @Summary      Counting progress
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.ProgressResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/progress [get]
func (h *ConferenceHandler) Progress(c *gin.Context) {
	progress, err := h.workspace.Progress(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, progress)
}

// Scan registers a barcode or code read
// @Summary      Register a scan
// @Tags         conference
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body conference.ScanRequest true "Scanned identifier and quantity"
// @Success      200 {object} dto.Response{data=conference.ScanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/scans [post]
func (h *ConferenceHandler) Scan(c *gin.Context) {
	var req conference.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.workspace.Scan(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ResetItem zeroes the counted quantity of one item
// @Summary      Reset an item count
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        item_id path string true "Item ID"
// @Success      200 {object} dto.Response{data=conference.ScanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/items/{item_id}/reset [post]
func (h *ConferenceHandler) ResetItem(c *gin.Context) {
	itemID, ok := h.uuidParam(c, "item_id")
	if !ok {
		return
	}
	result, err := h.workspace.ResetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Finalize closes counting of the active conference
// @Summary      Finalize counting
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.FinalizeResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/finalize [post]
func (h *ConferenceHandler) Finalize(c *gin.Context) {
	result, err := h.workspace.Finalize(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Approve accepts a divergent conference with supervisor credentials
// @Summary      Approve with divergences
// @Tags         conference
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body conference.ApproveRequest true "Supervisor credentials and justification"
// @Success      200 {object} dto.Response{data=conference.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/approve [post]
func (h *ConferenceHandler) Approve(c *gin.Context) {
	var req conference.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	batch, err := h.workspace.Approve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Reject sends a divergent conference back to counting
// @Summary      Reject and recount
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.BatchResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/reject [post]
func (h *ConferenceHandler) Reject(c *gin.Context) {
	batch, err := h.workspace.Reject(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Pause moves the active conference to the paused queue
// @Summary      Pause the active conference
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=conference.BatchSummaryResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active/pause [post]
func (h *ConferenceHandler) Pause(c *gin.Context) {
	summary, err := h.workspace.Pause(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Discard abandons the active conference
// @Summary      Discard the active conference
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      204 "No Content"
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/active [delete]
func (h *ConferenceHandler) Discard(c *gin.Context) {
	if err := h.workspace.Discard(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPaused returns the paused queue
// @Summary      Paused conferences
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=[]conference.BatchSummaryResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/paused [get]
func (h *ConferenceHandler) ListPaused(c *gin.Context) {
	paused, err := h.workspace.ListPaused(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, paused)
}

// Resume reactivates a paused conference. Replacing an active conference needs
// {"confirm": true}; an empty body counts as unconfirmed.
// @Summary      Resume a paused conference
// @Tags         conference
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch ID"
// @Param        request body conference.ResumeRequest false "Confirmation to replace the active conference"
// @Success      200 {object} dto.Response{data=conference.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/paused/{id}/resume [post]
func (h *ConferenceHandler) Resume(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req conference.ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindError(c, err)
		return
	}
	batch, err := h.workspace.Resume(c.Request.Context(), id, req.Confirm)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// DeletePaused removes a conference from the paused queue
// @Summary      Delete a paused conference
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch ID"
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/paused/{id} [delete]
func (h *ConferenceHandler) DeletePaused(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.workspace.DeletePaused(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListHistory returns completed conferences, paginated
// @Summary      Conference history
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "First day (YYYY-MM-DD)"
// @Param        end_date query string false "Last day (YYYY-MM-DD)"
// @Param        page query integer false "Page number"
// @Param        page_size query integer false "Page size"
// @Success      200 {object} dto.Response{data=[]conference.BatchSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/history [get]
func (h *ConferenceHandler) ListHistory(c *gin.Context) {
	var filter conference.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	items, total, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = shared.DefaultFilter().Page
	}
	if pageSize == 0 {
		pageSize = shared.DefaultFilter().PageSize
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetHistory returns one completed conference
// @Summary      Completed conference
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch ID"
// @Success      200 {object} dto.Response{data=conference.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/history/{id} [get]
func (h *ConferenceHandler) GetHistory(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.history.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Report returns the reconciliation report of a completed conference
// @Summary      Reconciliation report
// @Tags         conference
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Batch ID"
// @Success      200 {object} dto.Response{data=conference.ReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /conference/history/{id}/report [get]
func (h *ConferenceHandler) Report(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	report, err := h.history.Report(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
