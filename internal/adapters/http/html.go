package http

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-spread/internal/app"
	"github.com/randomtoy/tarot-spread/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const pickerRowSize = 12

type renderer struct {
	templates *template.Template
}

func newRenderer() *renderer {
	funcs := template.FuncMap{"title": titleCase}
	return &renderer{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
	}
}

// titleCase upper-cases the first rune of s.
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// Page carries what every template needs.
type Page struct {
	Title   string
	BaseURL string
}

type pickLink struct {
	Number int
	URL    string
}

type cardView struct {
	Number      int
	Name        string
	Orientation string
	Meaning     string
	Description string
}

type indexView struct {
	Page
	Version string
}

type createdView struct {
	Page
	Seed        string
	TotalCards  int
	Created     string
	Token       string
	SingleURL   string
	ThreeURL    string
	CelticURL   string
	JSONURL     string
	DownloadURL string
	PickURL     string
	TokenURL    string
}

type spreadView struct {
	Page
	Seed           string
	Choose         string
	Cards          []cardView
	Interpretation *InterpretationResp
	JSONURL        string
}

type pickerView struct {
	Page
	Seed string
	Rows [][]pickLink
}

type pickedView struct {
	Page
	Seed    string
	Number  int
	ViewURL string
	Rows    [][]pickLink
}

type readingView struct {
	Page
	Seed       string
	Choose     string
	Cards      []cardView
	Rows       [][]pickLink
	RestartURL string
}

type errorView struct {
	Page
	Status  int
	Message string
	BackURL string
}

func (h *Handler) HTMLIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", indexView{
		Page:    Page{Title: "Tarot Reader API", BaseURL: h.baseURL(c)},
		Version: apiVersion,
	})
}

func (h *Handler) PrivacyPolicy(c echo.Context) error {
	return c.Render(http.StatusOK, "privacy.html", Page{Title: "Privacy Policy", BaseURL: h.baseURL(c)})
}

// HTMLCreateSpread starts an interactive reading: a fresh seed and a grid of
// card numbers 1..DeckSize to pick from.
func (h *Handler) HTMLCreateSpread(c echo.Context) error {
	resp, err := h.svc.CreateSpread(false)
	if err != nil {
		return h.mapHTMLError(c, err)
	}
	base := h.baseURL(c)
	return c.Render(http.StatusOK, "picker.html", pickerView{
		Page: Page{Title: "Choose a card", BaseURL: base},
		Seed: resp.Seed,
		Rows: pickerRows(func(n int) string {
			return base + "/api/html/create-spread/" + strconv.Itoa(n) + "?seed=" + url.QueryEscape(resp.Seed)
		}),
	})
}

// HTMLPickedCard confirms a picked card number and offers the next pick.
func (h *Handler) HTMLPickedCard(c echo.Context) error {
	seed := strings.TrimSpace(c.QueryParam("seed"))
	if seed == "" {
		return h.mapHTMLError(c, domain.ErrInvalidSeed)
	}
	positions, rejected := app.ParsePositions(c.Param("id"), app.OneBased, domain.DeckSize)
	if len(rejected) > 0 || len(positions) != 1 {
		return h.mapHTMLError(c, invalidPosition(c.Param("id")))
	}
	n := positions[0] + 1

	base := h.baseURL(c)
	first := strconv.Itoa(n)
	return c.Render(http.StatusOK, "picked.html", pickedView{
		Page:    Page{Title: "Card " + first + " chosen", BaseURL: base},
		Seed:    seed,
		Number:  n,
		ViewURL: htmlReadingLink(base, seed, first),
		Rows: pickerRows(func(m int) string {
			return htmlReadingLink(base, seed, first+","+strconv.Itoa(m))
		}),
	})
}

// HTMLReading shows the cards at 1-based positions and lets the reader keep
// adding cards. Any position outside 1..DeckSize fails the request.
func (h *Handler) HTMLReading(c echo.Context) error {
	seed := c.Param("seed")
	choose := strings.TrimSpace(c.QueryParam("choose"))
	positions, rejected := app.ParsePositions(choose, app.OneBased, domain.DeckSize)
	if len(rejected) > 0 {
		return h.mapHTMLError(c, invalidPosition(rejected[0]))
	}

	resp, err := h.svc.ReadSpread(c.Request().Context(), app.ReadSpreadRequest{
		Seed:      seed,
		DeckID:    h.deckParam(c),
		Positions: positions,
	})
	if err != nil {
		return h.mapHTMLError(c, err)
	}

	base := h.baseURL(c)
	cards := toCardViews(resp.Cards)
	for i := range cards {
		cards[i].Number++
	}
	return c.Render(http.StatusOK, "reading.html", readingView{
		Page:   Page{Title: "Your reading", BaseURL: base},
		Seed:   resp.Seed,
		Choose: choose,
		Cards:  cards,
		Rows: pickerRows(func(m int) string {
			next := strconv.Itoa(m)
			if choose != "" {
				next = choose + "," + next
			}
			return htmlReadingLink(base, resp.Seed, next)
		}),
		RestartURL: base + "/api/html/create-spread",
	})
}

func (h *Handler) createdView(c echo.Context, resp app.CreateSpreadResponse) createdView {
	base := h.baseURL(c)
	link := spreadLink(base, resp.Seed)
	v := createdView{
		Page:        Page{Title: "New spread", BaseURL: base},
		Seed:        resp.Seed,
		TotalCards:  resp.TotalCards,
		Created:     time.UnixMilli(resp.Timestamp).UTC().Format(time.RFC3339),
		Token:       resp.Token,
		SingleURL:   link + "?choose=0&format=html",
		ThreeURL:    link + "?choose=0,1,2&format=html",
		CelticURL:   link + "?choose=0,1,2,3,4,5,6,7,8,9&format=html",
		JSONURL:     link + "?choose=0,1,2",
		DownloadURL: link + "?choose=0,1,2&download=true",
		PickURL:     base + "/api/html/create-spread",
	}
	if resp.Token != "" {
		v.TokenURL = base + "/api/token/" + url.PathEscape(resp.Token) + "?choose=0,1,2"
	}
	return v
}

func (h *Handler) spreadView(c echo.Context, resp app.ReadSpreadResponse, choose string) spreadView {
	v := spreadView{
		Page:    Page{Title: "Tarot spread", BaseURL: h.baseURL(c)},
		Seed:    resp.Seed,
		Choose:  choose,
		Cards:   toCardViews(resp.Cards),
		JSONURL: spreadLink(h.baseURL(c), resp.Seed) + "?choose=" + url.QueryEscape(choose),
	}
	if resp.Interpretation != nil {
		v.Interpretation = &InterpretationResp{
			Style:      resp.Interpretation.Style,
			Text:       resp.Interpretation.Text,
			Disclaimer: resp.Interpretation.Disclaimer,
		}
	}
	return v
}

func (h *Handler) mapHTMLError(c echo.Context, err error) error {
	status, msg := statusFor(c, err)
	base := h.baseURL(c)
	return c.Render(status, "error.html", errorView{
		Page:    Page{Title: "Something went wrong", BaseURL: base},
		Status:  status,
		Message: msg,
		BackURL: base + "/api/html/create-spread",
	})
}

func toCardViews(cards []domain.DrawnCard) []cardView {
	out := make([]cardView, len(cards))
	for i, dc := range cards {
		out[i] = cardView{
			Number:      dc.Position,
			Name:        dc.Name,
			Orientation: dc.Orientation.String(),
			Meaning:     dc.Meaning(),
			Description: dc.Description,
		}
	}
	return out
}

func pickerRows(link func(n int) string) [][]pickLink {
	var rows [][]pickLink
	for start := 1; start <= domain.DeckSize; start += pickerRowSize {
		row := make([]pickLink, 0, pickerRowSize)
		for n := start; n < start+pickerRowSize && n <= domain.DeckSize; n++ {
			row = append(row, pickLink{Number: n, URL: link(n)})
		}
		rows = append(rows, row)
	}
	return rows
}

func htmlReadingLink(base, seed, choose string) string {
	return base + "/api/html/spread/" + url.PathEscape(seed) + "?choose=" + choose
}

func invalidPosition(raw string) error {
	return &positionError{raw: raw}
}

type positionError struct {
	raw string
}

func (e *positionError) Error() string {
	return "Invalid card index: " + e.raw
}

func (e *positionError) Unwrap() error {
	return domain.ErrInvalidPosition
}
