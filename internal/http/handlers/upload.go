package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bimatlas/bimatlas/internal/http/response"
	"github.com/bimatlas/bimatlas/internal/ingest"
	"github.com/bimatlas/bimatlas/internal/platform/gcsarchive"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type UploadHandler struct {
	log      *logger.Logger
	deps     ingest.Deps
	archiver *gcsarchive.Archiver
}

func NewUploadHandler(log *logger.Logger, deps ingest.Deps, archiver *gcsarchive.Archiver) *UploadHandler {
	return &UploadHandler{log: log.With("handler", "UploadHandler"), deps: deps, archiver: archiver}
}

// POST /upload (multipart: file, branch_id, label?).
func (h *UploadHandler) Upload(c *gin.Context) {
	branchID, err := strconv.ParseInt(c.PostForm("branch_id"), 10, 64)
	if err != nil || branchID == 0 {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}
	label := strings.TrimSpace(c.PostForm("label"))

	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "ValidationError", err)
		return
	}

	tmpDir, err := os.MkdirTemp("", "bimatlas-upload-*")
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "StoreError", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	localPath := filepath.Join(tmpDir, filepath.Base(fh.Filename))
	if err := c.SaveUploadedFile(fh, localPath); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "StoreError", err)
		return
	}

	if h.archiver.Enabled() {
		if f, err := os.Open(localPath); err == nil {
			key := archiveKey(branchID, fh.Filename)
			if err := h.archiver.Archive(c.Request.Context(), key, f); err != nil {
				h.log.Warn("upload: archive failed", "branch_id", branchID, "error", err)
			}
			_ = f.Close()
		}
	}

	result, err := ingest.Run(c.Request.Context(), h.deps, ingest.Input{
		BranchID:       branchID,
		IFCPath:        localPath,
		SourceFilename: fh.Filename,
		Label:          label,
	})
	if err != nil {
		response.RespondAPIErr(c, err)
		return
	}
	response.RespondOK(c, result)
}

func archiveKey(branchID int64, filename string) string {
	return strconv.FormatInt(branchID, 10) + "/" + filepath.Base(filename)
}
