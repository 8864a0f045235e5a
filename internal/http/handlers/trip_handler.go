// README: Trip catalog handlers (search, get, create).
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tripchat/internal/logger"
	"tripchat/internal/modules/trip"
	"tripchat/internal/types"
)

type TripHandler struct {
	trip *trip.Service
	log  *logger.Logger
}

func NewTripHandler(svc *trip.Service, log *logger.Logger) *TripHandler {
	return &TripHandler{trip: svc, log: log}
}

func (h *TripHandler) List(c *gin.Context) {
	f := trip.Filter{
		DepartureCity: c.Query("departure_city"),
		ArrivalCity:   c.Query("arrival_city"),
		TransportCode: c.Query("transport_type"),
	}
	day, err := trip.ParseSearchDate(c.Query("departure_date"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	f.DepartureDate = day
	if v := c.Query("min_seats"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(c, http.StatusBadRequest, "min_seats must be an integer")
			return
		}
		f.MinSeats = n
	}

	list, err := h.trip.Search(c.Request.Context(), f)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, list)
}

func (h *TripHandler) Get(c *gin.Context) {
	id, ok := types.ParseID(c.Param("id"))
	if !ok {
		writeError(c, http.StatusNotFound, trip.ErrNotFound.Error())
		return
	}
	t, err := h.trip.Get(c.Request.Context(), id)
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

type createTripReq struct {
	Number         string      `json:"number"`
	TransportType  string      `json:"transport_type"`
	DepartureCity  string      `json:"departure_city"`
	ArrivalCity    string      `json:"arrival_city"`
	DepartureTime  time.Time   `json:"departure_time"`
	ArrivalTime    time.Time   `json:"arrival_time"`
	AvailableSeats int         `json:"available_seats"`
	Price          types.Money `json:"price"`
	Status         string      `json:"status"`
}

func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trip.Create(c.Request.Context(), trip.CreateCommand{
		Number:         req.Number,
		TransportType:  req.TransportType,
		DepartureCity:  req.DepartureCity,
		ArrivalCity:    req.ArrivalCity,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		AvailableSeats: req.AvailableSeats,
		Price:          req.Price,
		Status:         trip.Status(req.Status),
	})
	if err != nil {
		writeModuleError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}
