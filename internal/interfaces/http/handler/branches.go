package handler

import (
	"context"

	"github.com/checkmaster/backend/internal/application/identity"
	domain "github.com/checkmaster/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BranchAPI is the branch registry use case set
type BranchAPI interface {
	List(ctx context.Context, search string) ([]identity.BranchDTO, error)
	Create(ctx context.Context, actor *domain.User, req identity.CreateBranchRequest) (*identity.BranchDTO, error)
	Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error
	ResolveOrigin(ctx context.Context, q identity.OriginQuery) (*identity.OriginDTO, error)
}

// BranchHandler handles the company branch registry
type BranchHandler struct {
	BaseHandler
	branches BranchAPI
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(branches BranchAPI) *BranchHandler {
	return &BranchHandler{branches: branches}
}

// List returns the branches, optionally filtered by name or CNPJ with ?search=
// @Summary      List branches
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Name or CNPJ"
// @Success      200 {object} dto.Response{data=[]identity.BranchDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	branches, err := h.branches.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branches)
}

// Create registers a branch
// @Summary      Register a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.CreateBranchRequest true "Branch data"
// @Success      201 {object} dto.Response{data=identity.BranchDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req identity.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	branch, err := h.branches.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// Delete removes a branch
// @Summary      Delete a branch
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Branch ID"
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.branches.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Origin resolves the display origin of an invoice vendor
// @Summary      Resolve invoice origin
// @Tags         branches
// @Produce      json
// @Security     BearerAuth
// @Param        cnpj query string true "Vendor CNPJ"
// @Param        vendor_name query string false "Vendor name from the invoice"
// @Success      200 {object} dto.Response{data=identity.OriginDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /branches/origin [get]
func (h *BranchHandler) Origin(c *gin.Context) {
	var q identity.OriginQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	origin, err := h.branches.ResolveOrigin(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, origin)
}
