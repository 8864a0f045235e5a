// README: Booking handlers for create/get/list.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
	log     *logger.Logger
}

func NewBookingHandler(svc *booking.Service, log *logger.Logger) *BookingHandler {
	return &BookingHandler{booking: svc, log: log}
}

type createBookingReq struct {
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	Date          string `json:"date"`
	Passengers    int    `json:"passengers"`
	TransportType string `json:"transport_type"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := booking.CreateCommand{
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		Date:          req.Date,
		Passengers:    req.Passengers,
		TransportType: req.TransportType,
	}
	if err := booking.ValidateInput(cmd); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.booking.Create(c.Request.Context(), cmd)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := types.ParseID(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, booking.ErrNotFound.Error())
		return
	}
	b, err := h.booking.Get(c.Request.Context(), id)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) List(c *gin.Context) {
	list, err := h.booking.List(c.Request.Context())
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, list)
}
