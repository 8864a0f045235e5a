// README: Session administration handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

type SessionHandler struct {
	dialog *dialog.Service
	log    *logger.Logger
}

func NewSessionHandler(svc *dialog.Service, log *logger.Logger) *SessionHandler {
	return &SessionHandler{dialog: svc, log: log}
}

type sessionReq struct {
	SlotState slots.State `json:"slot_state"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req sessionReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	sess, err := h.dialog.CreateSession(c.Request.Context(), req.SlotState)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, sess)
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.dialog.GetSession(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	sess, err := h.dialog.UpdateSession(c.Request.Context(), types.ID(c.Param("id")), req.SlotState)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

func (h *SessionHandler) Deactivate(c *gin.Context) {
	if err := h.dialog.DeactivateSession(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
