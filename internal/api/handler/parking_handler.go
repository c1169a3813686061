package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/api/metrics"
	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

const (
	headerIdempotencyKey     = "Idempotency-Key"
	headerIdempotentReplayed = "Idempotent-Replayed"
)

// ParkingHandler handles HTTP requests for check-in, check-out and history.
type ParkingHandler struct {
	parking ports.ParkingService
	reports ports.ReportService
}

func NewParkingHandler(parking ports.ParkingService, reports ports.ReportService) *ParkingHandler {
	return &ParkingHandler{parking: parking, reports: reports}
}

// CheckIn handles POST /api/v1/parkings/check-in.
//
// @Summary      Check a vehicle in
// @Description  Parks the vehicle on the first free spot and issues a receipt.
// @Tags         parkings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string          false  "Replays the first result for a repeated key"
// @Param        body             body      checkInRequest  true   "Vehicle and client"
// @Success      201              {object}  sessionResponse
// @Success      200              {object}  sessionResponse  "Replayed check-in"
// @Failure      404              {object}  errorResponse    "Client not found or no free spot"
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /api/v1/parkings/check-in [post]
func (h *ParkingHandler) CheckIn(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req checkInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.parking.CheckIn(c.Request().Context(), actor, toCheckInInput(req, c.Request().Header.Get(headerIdempotencyKey)))
	if err != nil {
		metrics.ParkingOperationsTotal.WithLabelValues("check_in", resultLabel(err)).Inc()
		return err
	}

	if res.AlreadyExisted {
		metrics.ParkingOperationsTotal.WithLabelValues("check_in", "replayed").Inc()
		c.Response().Header().Set(headerIdempotentReplayed, "true")
		return c.JSON(http.StatusOK, toSessionResponse(res.Session))
	}

	metrics.ParkingOperationsTotal.WithLabelValues("check_in", "ok").Inc()
	metrics.SpotsOccupied.Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/api/v1/parkings/check-in/"+res.Session.Receipt)
	return c.JSON(http.StatusCreated, toSessionResponse(res.Session))
}

// Get handles GET /api/v1/parkings/check-in/:receipt.
//
// @Summary      Get an open session by receipt
// @Tags         parkings
// @Produce      json
// @Security     BearerAuth
// @Param        receipt  path      string  true  "Receipt (yyyyMMdd-HHmmss)"
// @Success      200      {object}  sessionResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/v1/parkings/check-in/{receipt} [get]
func (h *ParkingHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	receipt, err := receiptParam(c)
	if err != nil {
		return err
	}

	session, err := h.parking.GetOpen(c.Request().Context(), actor, receipt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// CheckOut handles PUT /api/v1/parkings/check-out/:receipt.
//
// @Summary      Check a vehicle out
// @Description  Closes the session, computes fee and loyalty discount and frees the spot.
// @Tags         parkings
// @Produce      json
// @Security     BearerAuth
// @Param        receipt  path      string  true  "Receipt (yyyyMMdd-HHmmss)"
// @Success      200      {object}  sessionResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/v1/parkings/check-out/{receipt} [put]
func (h *ParkingHandler) CheckOut(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	receipt, err := receiptParam(c)
	if err != nil {
		return err
	}

	session, err := h.parking.CheckOut(c.Request().Context(), actor, receipt)
	if err != nil {
		metrics.ParkingOperationsTotal.WithLabelValues("check_out", resultLabel(err)).Inc()
		return err
	}

	metrics.ParkingOperationsTotal.WithLabelValues("check_out", "ok").Inc()
	metrics.SpotsOccupied.Dec()
	due, _ := session.AmountDue().Float64()
	metrics.RevenueTotal.Add(due)
	if session.Discount.Decimal.IsPositive() {
		metrics.DiscountsGrantedTotal.Inc()
	}
	metrics.SessionDuration.Observe(session.ExitTime.Time.Sub(session.EntryTime).Minutes())

	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// ListByCPF handles GET /api/v1/parkings/cpf/:cpf.
//
// @Summary      Parking history of a client
// @Tags         parkings
// @Produce      json
// @Security     BearerAuth
// @Param        cpf   path      string  true   "Client CPF"
// @Param        page  query     int     false  "Page, 1-based"  default(1)
// @Param        size  query     int     false  "Page size"      default(5)
// @Success      200   {object}  sessionPageResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/v1/parkings/cpf/{cpf} [get]
func (h *ParkingHandler) ListByCPF(c echo.Context) error {
	cpf := c.Param("cpf")
	if !domain.ValidTaxID(cpf) {
		return domain.ErrInvalidTaxID
	}

	var q pageQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.parking.ListByTaxID(c.Request().Context(), cpf, toPageRequest(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionPageResponse(page))
}

// ListMine handles GET /api/v1/parkings.
//
// @Summary      Own parking history
// @Tags         parkings
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page, 1-based"  default(1)
// @Param        size  query     int  false  "Page size"      default(5)
// @Success      200   {object}  sessionPageResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/parkings [get]
func (h *ParkingHandler) ListMine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var q pageQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.parking.ListForUser(c.Request().Context(), actor.UserID, toPageRequest(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionPageResponse(page))
}

// Report handles GET /api/v1/parkings/report.
//
// @Summary      Own parking history as PDF
// @Tags         parkings
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/parkings/report [get]
func (h *ParkingHandler) Report(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	pdf, err := h.reports.History(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return sendPDF(c, "parking-history.pdf", pdf)
}

// Ticket handles GET /api/v1/parkings/check-in/:receipt/ticket.
//
// @Summary      Entry ticket as PDF
// @Tags         parkings
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        receipt  path      string  true  "Receipt (yyyyMMdd-HHmmss)"
// @Success      200      {file}    binary
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/v1/parkings/check-in/{receipt}/ticket [get]
func (h *ParkingHandler) Ticket(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	receipt, err := receiptParam(c)
	if err != nil {
		return err
	}
	pdf, err := h.reports.Ticket(c.Request().Context(), actor, receipt)
	if err != nil {
		return err
	}
	return sendPDF(c, "ticket-"+receipt+".pdf", pdf)
}

func receiptParam(c echo.Context) (string, error) {
	receipt := c.Param("receipt")
	if !domain.ValidReceipt(receipt) {
		return "", domain.ErrInvalidReceipt
	}
	return receipt, nil
}

func sendPDF(c echo.Context, filename string, pdf []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// resultLabel maps an error to a low-cardinality metrics label.
func resultLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "error"
	}
}
