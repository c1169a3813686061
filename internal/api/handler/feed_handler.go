package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FeedServer streams spot events over an upgraded connection.
type FeedServer interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

type FeedHandler struct {
	feed FeedServer
	log  zerolog.Logger
}

func NewFeedHandler(feed FeedServer, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, log: log}
}

// Subscribe upgrades to a WebSocket that receives one JSON message per spot
// status change.
//
// @Summary      Live spot status feed
// @Tags         spots
// @Security     BearerAuth
// @Success      101
// @Failure      400  {object}  errorResponse
// @Router       /api/v1/spots/feed [get]
func (h *FeedHandler) Subscribe(c echo.Context) error {
	if err := h.feed.Serve(c.Response(), c.Request()); err != nil {
		// the upgrader has already written the HTTP error
		h.log.Debug().Err(err).Str("remote_ip", c.RealIP()).Msg("feed subscription rejected")
	}
	return nil
}
