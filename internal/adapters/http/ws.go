package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-spread/internal/app"
)

const (
	wsIdleTimeout  = 2 * time.Minute
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 512
)

// DrawStream reveals cards of one spread over a WebSocket, one
// {"position": n} message at a time. The seed is checked before upgrading
// so a bad seed still gets a plain HTTP error.
func (h *Handler) DrawStream(c echo.Context) error {
	seed := c.Param("seed")
	deckID := h.deckParam(c)
	if _, err := h.svc.ReadSpread(c.Request().Context(), app.ReadSpreadRequest{Seed: seed, DeckID: deckID}); err != nil {
		return mapError(c, err)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return nil
	}
	defer conn.Close()

	requestID, _ := c.Get("request_id").(string)
	conn.SetReadLimit(wsMaxMessage)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("draw stream closed", "request_id", requestID, "error", err)
			}
			return nil
		}

		var reply drawReply
		var req drawRequest
		switch {
		case json.Unmarshal(msg, &req) != nil:
			reply = drawReply{Error: `expected {"position": <integer>}`}
		case req.Position == nil:
			reply = drawReply{Error: "missing position"}
		default:
			reply = h.draw(c, seed, deckID, *req.Position)
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			slog.Debug("draw stream write failed", "request_id", requestID, "error", err)
			return nil
		}
	}
}

func (h *Handler) draw(c echo.Context, seed, deckID string, position int) drawReply {
	resp, err := h.svc.ReadSpread(c.Request().Context(), app.ReadSpreadRequest{
		Seed:      seed,
		DeckID:    deckID,
		Positions: []int{position},
	})
	if err != nil {
		_, msg := statusFor(c, err)
		return drawReply{Error: msg}
	}
	if len(resp.Cards) != 1 {
		return drawReply{Error: "no card drawn"}
	}
	card := toChosen(resp.Cards)[0]
	return drawReply{Position: &position, Card: &card}
}

func (h *Handler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get(echo.HeaderOrigin)
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin)
}
