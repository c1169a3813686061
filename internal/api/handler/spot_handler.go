package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
)

type SpotHandler struct {
	spots ports.SpotService
}

func NewSpotHandler(spots ports.SpotService) *SpotHandler {
	return &SpotHandler{spots: spots}
}

// Create registers a parking spot.
//
// @Summary      Create a parking spot
// @Tags         spots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSpotRequest  true  "Spot details"
// @Success      201   {object}  spotResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/v1/spots [post]
func (h *SpotHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req createSpotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	spot, err := h.spots.Create(c.Request().Context(), actor, ports.CreateSpotInput{
		Code:        req.Code,
		Status:      domain.SpotStatus(req.Status),
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSpotResponse(spot))
}

// Get returns a spot by code.
//
// @Summary      Get a parking spot
// @Tags         spots
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string  true  "Spot code"
// @Success      200   {object}  spotResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/v1/spots/{code} [get]
func (h *SpotHandler) Get(c echo.Context) error {
	spot, err := h.spots.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSpotResponse(spot))
}

// List returns spots ordered by code, optionally filtered by status.
//
// @Summary      List parking spots
// @Tags         spots
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "FREE or OCCUPIED"
// @Success      200     {array}   spotResponse
// @Failure      422     {object}  errorResponse
// @Router       /api/v1/spots [get]
func (h *SpotHandler) List(c echo.Context) error {
	var q spotQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	var status domain.SpotStatus
	if q.Status != "" {
		parsed, err := domain.ParseSpotStatus(q.Status)
		if err != nil {
			return err
		}
		status = parsed
	}

	spots, err := h.spots.List(c.Request().Context(), status)
	if err != nil {
		return err
	}

	resp := make([]spotResponse, 0, len(spots))
	for _, s := range spots {
		resp = append(resp, toSpotResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}
