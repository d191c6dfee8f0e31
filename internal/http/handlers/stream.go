package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimatlas/bimatlas/internal/http/response"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
	"github.com/bimatlas/bimatlas/internal/query"
	"github.com/bimatlas/bimatlas/internal/stream"
)

type StreamHandler struct {
	log  *logger.Logger
	deps stream.Deps
}

func NewStreamHandler(log *logger.Logger, deps stream.Deps) *StreamHandler {
	return &StreamHandler{log: log.With("handler", "StreamHandler"), deps: deps}
}

// GET /products/stream?branch_id=&revision=&ifc_class=...
func (h *StreamHandler) Stream(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.Query("branch_id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	var rev int64
	if v := strings.TrimSpace(c.Query("revision")); v != "" {
		rev, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
			return
		}
	}
	var filters query.Filters
	if v := strings.TrimSpace(c.Query("ifc_class")); v != "" {
		filters.IFCClasses = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(c.Query("contained_in")); v != "" {
		filters.ContainedIn = &v
	}
	filters.Search = c.Query("search")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if err := stream.Run(c.Request.Context(), h.deps, stream.Input{
		BranchID: branchID,
		Revision: rev,
		Filters:  filters,
	}, c.Writer); err != nil {
		h.log.Error("stream handler failed", "error", err, "branch_id", branchID)
	}
}
