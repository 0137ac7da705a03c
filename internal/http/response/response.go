package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/wealthquest-backend/internal/observability"
	pkgerrors "github.com/yungbote/wealthquest-backend/internal/pkg/errors"
	"github.com/yungbote/wealthquest-backend/internal/platform/apierr"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps an apierr.Error to its status and code. Bare
// sentinels get their natural status; anything else is a 500.
func RespondServiceError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := ae.Code
		if code == "" {
			code = "internal"
		}
		RespondError(c, status, code, err)
		return
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, pkgerrors.ErrUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "unavailable", err)
	default:
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Sourced wraps a read that may have been served degraded.
type Sourced[T any] struct {
	Data   T            `json:"data"`
	Source fetch.Source `json:"source"`
	// Notice is set when a collaborator failed; the data is still usable.
	Notice string `json:"notice,omitempty"`
}

// RespondResult writes r with its source. Degraded reads are counted
// per failing collaborator.
func RespondResult[T any](c *gin.Context, r fetch.Result[T]) {
	out := Sourced[T]{Data: r.Value, Source: r.Source}
	if r.Err != nil {
		out.Notice = r.Err.Error()
		observability.Current().IncFallback(r.Err.Collaborator)
	} else if r.Source == fetch.SourceFallback {
		observability.Current().IncFallback("unknown")
	}
	RespondOK(c, out)
}
