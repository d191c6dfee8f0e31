package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimatlas/bimatlas/internal/http/response"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/query"
)

type QueryHandler struct {
	log   *logger.Logger
	query *query.Layer
}

func NewQueryHandler(log *logger.Logger, q *query.Layer) *QueryHandler {
	return &QueryHandler{log: log.With("handler", "QueryHandler"), query: q}
}

// parseBranchAndRevision reads the branch_id (required) and revision
// (optional, defaults to 0 meaning latest) query params shared by every
// read endpoint.
func parseBranchAndRevision(c *gin.Context) (branchID int64, rev int64, ok bool) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return 0, 0, false
	}
	if v := strings.TrimSpace(c.Query("revision")); v != "" {
		rev, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
			return 0, 0, false
		}
	}
	return branchID, rev, true
}

// GET /products/:global_id?branch_id=&revision=
func (h *QueryHandler) Product(c *gin.Context) {
	branchID, rev, ok := parseBranchAndRevision(c)
	if !ok {
		return
	}
	globalID := c.Param("global_id")
	view, err := h.query.Product(c.Request.Context(), branchID, globalID, rev)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /products?branch_id=&revision=&ifc_class=&contained_in=&search=
func (h *QueryHandler) Products(c *gin.Context) {
	branchID, rev, ok := parseBranchAndRevision(c)
	if !ok {
		return
	}
	var filters query.Filters
	if v := strings.TrimSpace(c.Query("ifc_class")); v != "" {
		filters.IFCClasses = strings.Split(v, ",")
		for i := range filters.IFCClasses {
			filters.IFCClasses[i] = strings.TrimSpace(filters.IFCClasses[i])
		}
	}
	if v := strings.TrimSpace(c.Query("contained_in")); v != "" {
		filters.ContainedIn = &v
	}
	filters.Search = c.Query("search")

	views, err := h.query.Products(c.Request.Context(), branchID, rev, filters)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": views})
}

// GET /spatial-tree?branch_id=&revision=
func (h *QueryHandler) SpatialTree(c *gin.Context) {
	branchID, rev, ok := parseBranchAndRevision(c)
	if !ok {
		return
	}
	tree, err := h.query.SpatialTree(c.Request.Context(), branchID, rev)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tree": tree})
}

// GET /revisions?branch_id=
func (h *QueryHandler) Revisions(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	revs, err := h.query.Revisions(c.Request.Context(), branchID)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revisions": revs})
}

// GET /revision-diff?branch_id=&from_rev=&to_rev=
func (h *QueryHandler) RevisionDiff(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	fromRev, err := strconv.ParseInt(c.Query("from_rev"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	toRev, err := strconv.ParseInt(c.Query("to_rev"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	diff, err := h.query.RevisionDiff(c.Request.Context(), branchID, fromRev, toRev)
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, diff)
}
