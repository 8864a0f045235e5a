// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

// textInternal is shown to chat users when a turn cannot be completed.
const textInternal = "Извините, произошла ошибка. Попробуйте ещё раз или напишите «начать заново»."

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeModuleError maps module sentinel errors to status codes. Unknown errors are
// logged and hidden behind a generic message.
func writeModuleError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest), errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, trip.ErrNotFound), errors.Is(err, dialog.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dialog.ErrLockTimeout):
		writeError(c, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
