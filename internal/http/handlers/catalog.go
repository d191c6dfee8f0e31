package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bimatlas/bimatlas/internal/catalog"
	"github.com/bimatlas/bimatlas/internal/http/response"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type CatalogHandler struct {
	log     *logger.Logger
	catalog *catalog.Catalog
}

func NewCatalogHandler(log *logger.Logger, c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{log: log.With("handler", "CatalogHandler"), catalog: c}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// POST /projects
func (h *CatalogHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	project, branch, err := h.catalog.CreateProject(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": project, "main_branch": branch})
}

type createBranchRequest struct {
	Name string `json:"name"`
}

// POST /projects/:id/branches
func (h *CatalogHandler) CreateBranch(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || projectID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	var req createBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	branch, err := h.catalog.CreateBranch(c.Request.Context(), projectID, req.Name)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branch": branch})
}

// DELETE /projects/:id
func (h *CatalogHandler) DeleteProject(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || projectID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	if err := h.catalog.DeleteProject(c.Request.Context(), projectID); err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /branches/:id
func (h *CatalogHandler) DeleteBranch(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	if err := h.catalog.DeleteBranch(c.Request.Context(), branchID); err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /branches/:id/reconcile triggers an on-demand graph repair sweep for
// a branch, the same operation an interval sweep runs automatically.
func (h *CatalogHandler) ReconcileBranch(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	result, err := h.catalog.ReconcileBranch(c.Request.Context(), branchID)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, result)
}
