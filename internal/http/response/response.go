// Package response is the HTTP envelope every handler renders through.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bimatlas/bimatlas/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"kind,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// RespondAPIErr renders a *apierr.Error using its own Status/Code, or a
// generic 500 StoreError for any other error (ingest, for one, returns its
// relational write failures unwrapped).
func RespondAPIErr(c *gin.Context, err error) {
	if apiErr, ok := err.(*apierr.Error); ok {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "StoreError", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
