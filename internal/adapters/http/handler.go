package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-spread/internal/app"
	"github.com/randomtoy/tarot-spread/internal/domain"
)

const (
	apiVersion     = "2.0.0"
	maxQuestionLen = 500
)

type Handler struct {
	svc            *app.SpreadService
	deckID         string
	publicBaseURL  string
	allowedOrigins []string
}

// NewHandler builds the HTTP handlers. publicBaseURL, when empty, is derived
// from each request's scheme and host.
func NewHandler(svc *app.SpreadService, deckID, publicBaseURL string, allowedOrigins []string) *Handler {
	return &Handler{
		svc:            svc,
		deckID:         deckID,
		publicBaseURL:  publicBaseURL,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.Renderer = newRenderer()

	e.GET("/healthz", h.Healthz)

	api := e.Group("/api")
	api.GET("", h.Index)
	api.GET("/index", h.Index)
	api.Match([]string{http.MethodGet, http.MethodPost}, "/create-spread", h.CreateSpread)
	api.GET("/spread/:seed", h.ReadSpread)
	api.GET("/spread/:seed/ws", h.DrawStream)
	api.GET("/token/:token", h.ReadToken)
	api.GET("/privacy-policy", h.PrivacyPolicy)

	// HTML flows number positions from 1.
	api.GET("/html/index", h.HTMLIndex)
	api.GET("/html/create-spread", h.HTMLCreateSpread)
	api.GET("/html/create-spread/:id", h.HTMLPickedCard)
	api.GET("/html/spread/:seed", h.HTMLReading)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Index(c echo.Context) error {
	if c.QueryParam("format") == "html" {
		return h.HTMLIndex(c)
	}
	base := h.baseURL(c)
	return c.JSON(http.StatusOK, IndexResponse{
		Message: "Tarot Reader API",
		Version: apiVersion,
		Endpoints: map[string]string{
			"create_spread": base + "/api/create-spread",
			"read_spread":   base + "/api/spread/{seed}?choose=0,1,2",
			"read_token":    base + "/api/token/{token}?choose=0,1,2",
			"draw_stream":   base + "/api/spread/{seed}/ws",
			"html_docs":     base + "/api/index?format=html",
		},
		Routes: []string{
			"/api/create-spread - Create new tarot spread (JSON)",
			"/api/create-spread?format=html - Create new tarot spread (HTML)",
			"/api/create-spread?token=true - Also issue a signed share token",
			"/api/spread/{seed}?choose=0,1,2 - Read cards from spread, positions 0-71 (JSON)",
			"/api/spread/{seed}?choose=0,1,2&format=html - Read cards from spread (HTML)",
			"/api/spread/{seed}?choose=0,1,2&download=true - Download JSON file",
			"/api/spread/{seed}?choose=0,1,2&interpret=true&q=... - Add an interpretation",
			"/api/token/{token}?choose=0,1,2 - Read cards from a share token",
			"/api/html/create-spread - Pick cards interactively, positions 1-72",
		},
	})
}

func (h *Handler) CreateSpread(c echo.Context) error {
	resp, err := h.svc.CreateSpread(c.QueryParam("token") == "true")
	if c.QueryParam("format") == "html" {
		if err != nil {
			return h.mapHTMLError(c, err)
		}
		return c.Render(http.StatusOK, "created.html", h.createdView(c, resp))
	}
	if err != nil {
		return mapError(c, err)
	}

	base := h.baseURL(c)
	spreadURL := spreadLink(base, resp.Seed) + "?choose=0,1,2"
	out := CreateSpreadResponse{
		Seed:        resp.Seed,
		TotalCards:  resp.TotalCards,
		Timestamp:   resp.Timestamp,
		Token:       resp.Token,
		URL:         spreadURL,
		HTMLURL:     spreadURL + "&format=html",
		DownloadURL: spreadURL + "&download=true",
		RawURL:      spreadURL + "&format=raw",
	}
	if resp.Token != "" {
		out.TokenURL = base + "/api/token/" + url.PathEscape(resp.Token) + "?choose=0,1,2"
	}
	return c.JSON(http.StatusOK, out)
}

// ReadSpread serves cards at 0-based positions. Positions that are not
// integers or fall outside the deck are dropped.
func (h *Handler) ReadSpread(c echo.Context) error {
	return h.readSpread(c, c.Param("seed"))
}

func (h *Handler) ReadToken(c echo.Context) error {
	seed, err := h.svc.SeedFromToken(c.Param("token"))
	if err != nil {
		return mapError(c, err)
	}
	return h.readSpread(c, seed)
}

func (h *Handler) readSpread(c echo.Context, seed string) error {
	q := c.QueryParam("q")
	if utf8.RuneCountInString(q) > maxQuestionLen {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("q must be at most %d characters", maxQuestionLen)})
	}

	choose := c.QueryParam("choose")
	positions, _ := app.ParsePositions(choose, app.ZeroBased, domain.DeckSize)

	resp, err := h.svc.ReadSpread(c.Request().Context(), app.ReadSpreadRequest{
		Seed:      seed,
		DeckID:    h.deckParam(c),
		Positions: positions,
		Question:  q,
		Lang:      c.QueryParam("lang"),
		Interpret: c.QueryParam("interpret") == "true",
	})

	if c.QueryParam("format") == "html" {
		if err != nil {
			return h.mapHTMLError(c, err)
		}
		return c.Render(http.StatusOK, "spread.html", h.spreadView(c, resp, choose))
	}
	if err != nil {
		return mapError(c, err)
	}

	requestID, _ := c.Get("request_id").(string)
	out := toReadResponse(resp, choose, requestID)

	if c.QueryParam("download") == "true" {
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="tarot-%d.json"`, time.Now().UnixMilli()))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) deckParam(c echo.Context) string {
	if d := c.QueryParam("deck"); d != "" {
		return d
	}
	return h.deckID
}

func (h *Handler) baseURL(c echo.Context) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return c.Scheme() + "://" + c.Request().Host
}

func spreadLink(base, seed string) string {
	return base + "/api/spread/" + url.PathEscape(seed)
}

func toChosen(cards []domain.DrawnCard) []ChosenCard {
	out := make([]ChosenCard, len(cards))
	for i, dc := range cards {
		out[i] = ChosenCard{
			Position:    dc.Position,
			Name:        dc.Name,
			Meaning:     dc.Meaning(),
			Orientation: dc.Orientation.String(),
		}
	}
	return out
}

func toReadResponse(r app.ReadSpreadResponse, choose, requestID string) ReadSpreadResponse {
	out := ReadSpreadResponse{Chosen: toChosen(r.Cards)}

	if len(r.Cards) == 0 {
		info := &SpreadInfoResp{
			TotalCards:  r.TotalCards,
			SeedUsed:    r.Seed,
			ChooseParam: choose,
			Message:     "No valid card indices found",
		}
		if choose == "" {
			info.ChooseParam = "not provided"
			info.Message = "Add ?choose=0,1,2 to select cards"
		}
		out.Info = info
	}

	if r.Interpretation != nil {
		out.Interpretation = &InterpretationResp{
			Style:      r.Interpretation.Style,
			Text:       r.Interpretation.Text,
			Disclaimer: r.Interpretation.Disclaimer,
		}
		out.Meta = &MetaResp{
			Model:     r.Model,
			RequestID: requestID,
			LatencyMS: r.LatencyMS,
		}
	}
	return out
}

// statusFor maps an error to a status code and a message safe to show.
func statusFor(c echo.Context, err error) (int, string) {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrInvalidSeed):
		return http.StatusBadRequest, "Invalid or missing seed. Please create a new spread."
	case errors.Is(err, domain.ErrInvalidPosition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInterpretDisabled):
		return http.StatusBadRequest, domain.ErrInterpretDisabled.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, domain.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrDeckNotFound):
		return http.StatusNotFound, domain.ErrDeckNotFound.Error()
	case errors.Is(err, domain.ErrTokensDisabled):
		return http.StatusNotFound, domain.ErrTokensDisabled.Error()
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		slog.Error("upstream LLM failure", "request_id", requestID, "error", err)
		return http.StatusBadGateway, "upstream LLM failure"
	case errors.Is(err, domain.ErrSizeMismatch):
		slog.Error("deck generator bug", "request_id", requestID, "error", err)
		return http.StatusInternalServerError, "internal error"
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return http.StatusInternalServerError, "internal error"
	}
}

func mapError(c echo.Context, err error) error {
	status, msg := statusFor(c, err)
	return c.JSON(status, ErrorResponse{Error: msg})
}
