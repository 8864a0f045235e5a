// README: Chat endpoint; one request is one dialog turn.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/types"
)

type DialogHandler struct {
	dialog *dialog.Service
	log    *logger.Logger
}

func NewDialogHandler(svc *dialog.Service, log *logger.Logger) *DialogHandler {
	return &DialogHandler{dialog: svc, log: log}
}

type messageReq struct {
	SessionID string  `json:"session_id"`
	Message   *string `json:"message"`
}

func (h *DialogHandler) Message(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == nil {
		writeError(c, http.StatusBadRequest, dialog.ErrMessageRequired.Error())
		return
	}

	reply, err := h.dialog.HandleTurn(c.Request.Context(), dialog.TurnRequest{
		SessionID: types.ID(req.SessionID),
		Message:   *req.Message,
	})
	switch {
	case errors.Is(err, dialog.ErrMessageRequired):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, dialog.ErrLockTimeout):
		writeJSON(c, http.StatusConflict, gin.H{"error": err.Error(), "response": textInternal})
	case err != nil:
		h.log.Error("dialog turn failed", "session_id", req.SessionID, "error", err)
		writeJSON(c, http.StatusInternalServerError, gin.H{"error": "internal error", "response": textInternal})
	default:
		writeJSON(c, http.StatusOK, reply)
	}
}
