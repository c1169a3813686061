package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/core/ports"
)

type ClientHandler struct {
	clients ports.ClientService
}

func NewClientHandler(clients ports.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Create registers the caller's client profile.
//
// @Summary      Register a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  clientResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/v1/clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.clients.Create(c.Request().Context(), actor, ports.CreateClientInput{Name: req.Name, TaxID: req.TaxID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// Get returns a client by id.
//
// @Summary      Get a client by id
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      200  {object}  clientResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	client, err := h.clients.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Me returns the caller's own client profile.
//
// @Summary      Get own client profile
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  clientResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/v1/clients/me [get]
func (h *ClientHandler) Me(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	client, err := h.clients.GetByUserID(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// List returns a page of clients sorted by name.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page, 1-based"  default(1)
// @Param        size  query     int  false  "Page size"      default(5)
// @Success      200   {object}  clientPageResponse
// @Router       /api/v1/clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	var q pageQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.clients.List(c.Request().Context(), toPageRequest(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientPageResponse(page))
}
