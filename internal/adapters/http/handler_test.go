package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/tarot-spread/internal/adapters/decks"
	httpadapter "github.com/randomtoy/tarot-spread/internal/adapters/http"
	"github.com/randomtoy/tarot-spread/internal/adapters/token"
	"github.com/randomtoy/tarot-spread/internal/app"
	"github.com/randomtoy/tarot-spread/internal/domain"
	"github.com/randomtoy/tarot-spread/internal/ports"
)

const baseURL = "https://tarot.example"

type fixedRNG struct{}

func (fixedRNG) Intn(int) int { return 0 }

type stubInterpreter struct {
	out ports.InterpretOutput
	err error
	in  ports.InterpretInput
}

func (s *stubInterpreter) Interpret(_ context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	s.in = in
	return s.out, s.err
}

func newServer(t *testing.T, interp ports.Interpreter, tokens ports.TokenSigner) *echo.Echo {
	t.Helper()
	store := decks.NewEmbeddedStore()
	if err := store.Load(); err != nil {
		t.Fatalf("load decks: %v", err)
	}
	svc := app.NewSpreadService(store, interp, tokens, fixedRNG{}, "test-model")

	e := echo.New()
	e.Use(httpadapter.RequestIDMiddleware())
	httpadapter.NewHandler(svc, decks.DefaultDeckID, baseURL, []string{"*"}).Register(e)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	e := newServer(t, nil, nil)
	rec := do(e, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
}

func TestRequestIDIsKept(t *testing.T) {
	e := newServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("got request id %q", got)
	}
}

func TestIndex(t *testing.T) {
	e := newServer(t, nil, nil)

	rec := do(e, http.MethodGet, "/api")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	idx := decode[httpadapter.IndexResponse](t, rec)
	if idx.Version != "2.0.0" || idx.Endpoints["create_spread"] != baseURL+"/api/create-spread" {
		t.Errorf("unexpected index: %+v", idx)
	}

	rec = do(e, http.MethodGet, "/api/index?format=html")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/html") {
		t.Errorf("expected html docs, got %d %s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
}

func TestCreateSpread(t *testing.T) {
	e := newServer(t, nil, nil)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := do(e, method, "/api/create-spread")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", method, rec.Code)
		}
		resp := decode[httpadapter.CreateSpreadResponse](t, rec)
		if resp.Seed == "" || resp.TotalCards != domain.DeckSize || resp.Timestamp == 0 {
			t.Errorf("%s: unexpected response %+v", method, resp)
		}
		want := baseURL + "/api/spread/" + resp.Seed + "?choose=0,1,2"
		if resp.URL != want || resp.DownloadURL != want+"&download=true" {
			t.Errorf("%s: unexpected links %+v", method, resp)
		}
		if resp.Token != "" || resp.TokenURL != "" {
			t.Errorf("%s: token issued without signer", method)
		}
	}
}

func TestCreateSpread_HTML(t *testing.T) {
	e := newServer(t, nil, nil)
	rec := do(e, http.MethodGet, "/api/create-spread?format=html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Celtic cross") {
		t.Errorf("unexpected page: %s", rec.Body.String())
	}
}

func TestCreateSpread_TokenRoundTrip(t *testing.T) {
	e := newServer(t, nil, token.NewSigner("secret", "test", 0))

	rec := do(e, http.MethodGet, "/api/create-spread?token=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	created := decode[httpadapter.CreateSpreadResponse](t, rec)
	if created.Token == "" || !strings.HasPrefix(created.TokenURL, baseURL+"/api/token/") {
		t.Fatalf("expected token links, got %+v", created)
	}

	rec = do(e, http.MethodGet, strings.TrimPrefix(created.TokenURL, baseURL))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fromToken := decode[httpadapter.ReadSpreadResponse](t, rec)

	rec = do(e, http.MethodGet, strings.TrimPrefix(created.URL, baseURL))
	fromSeed := decode[httpadapter.ReadSpreadResponse](t, rec)

	if len(fromToken.Chosen) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(fromToken.Chosen))
	}
	for i := range fromToken.Chosen {
		if fromToken.Chosen[i] != fromSeed.Chosen[i] {
			t.Errorf("card %d differs: %+v vs %+v", i, fromToken.Chosen[i], fromSeed.Chosen[i])
		}
	}
}

func TestReadToken_Errors(t *testing.T) {
	rec := do(newServer(t, nil, token.NewSigner("secret", "test", 0)), http.MethodGet, "/api/token/garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = do(newServer(t, nil, nil), http.MethodGet, "/api/token/garbage")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 with tokens disabled, got %d", rec.Code)
	}
}

func TestReadSpread(t *testing.T) {
	e := newServer(t, nil, nil)

	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0,1,2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[httpadapter.ReadSpreadResponse](t, rec)

	want := []httpadapter.ChosenCard{
		{Position: 0, Name: "Queen of Swords", Meaning: "Mature care for thought and conflict", Orientation: "upright"},
		{Position: 1, Name: "The Lovers", Meaning: "Disharmony and imbalance. Avoiding a necessary choice", Orientation: "reversed"},
		{Position: 2, Name: "The High Priestess", Meaning: "Ignoring your inner voice. Secrets kept too long", Orientation: "reversed"},
	}
	if len(resp.Chosen) != len(want) {
		t.Fatalf("expected %d cards, got %+v", len(want), resp.Chosen)
	}
	for i := range want {
		if resp.Chosen[i] != want[i] {
			t.Errorf("card %d: got %+v, want %+v", i, resp.Chosen[i], want[i])
		}
	}
	if resp.Info != nil || resp.Interpretation != nil {
		t.Errorf("unexpected extra blocks: %+v", resp)
	}
}

func TestReadSpread_Info(t *testing.T) {
	e := newServer(t, nil, nil)

	tests := []struct {
		target      string
		chooseParam string
		message     string
	}{
		{"/api/spread/test1", "not provided", "Add ?choose=0,1,2 to select cards"},
		{"/api/spread/test1?choose=x,99,-1", "x,99,-1", "No valid card indices found"},
	}

	for _, tt := range tests {
		rec := do(e, http.MethodGet, tt.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.target, rec.Code)
		}
		resp := decode[httpadapter.ReadSpreadResponse](t, rec)
		if len(resp.Chosen) != 0 || resp.Info == nil {
			t.Fatalf("%s: expected info block, got %+v", tt.target, resp)
		}
		if resp.Info.ChooseParam != tt.chooseParam || resp.Info.Message != tt.message {
			t.Errorf("%s: unexpected info %+v", tt.target, resp.Info)
		}
		if resp.Info.TotalCards != domain.DeckSize || resp.Info.SeedUsed != "test1" {
			t.Errorf("%s: unexpected info %+v", tt.target, resp.Info)
		}
	}
}

func TestReadSpread_FiltersInvalidPositions(t *testing.T) {
	e := newServer(t, nil, nil)
	resp := decode[httpadapter.ReadSpreadResponse](t, do(e, http.MethodGet, "/api/spread/test1?choose=72,1,abc"))
	if len(resp.Chosen) != 1 || resp.Chosen[0].Position != 1 {
		t.Errorf("expected only position 1, got %+v", resp.Chosen)
	}
}

func TestReadSpread_Download(t *testing.T) {
	e := newServer(t, nil, nil)
	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0&download=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.HasPrefix(cd, `attachment; filename="tarot-`) || !strings.HasSuffix(cd, `.json"`) {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
}

func TestReadSpread_HTML(t *testing.T) {
	e := newServer(t, nil, nil)
	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0,1&format=html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, s := range []string{"Queen of Swords", "The Lovers", "(Reversed)"} {
		if !strings.Contains(body, s) {
			t.Errorf("expected %q in page", s)
		}
	}
}

func TestReadSpread_Errors(t *testing.T) {
	e := newServer(t, nil, nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"blank seed", "/api/spread/%20?choose=0", http.StatusBadRequest},
		{"blank seed html", "/api/spread/%20?choose=0&format=html", http.StatusBadRequest},
		{"unknown deck", "/api/spread/test1?choose=0&deck=nope", http.StatusNotFound},
		{"question too long", "/api/spread/test1?choose=0&q=" + strings.Repeat("a", 501), http.StatusBadRequest},
		{"interpret disabled", "/api/spread/test1?choose=0&interpret=true", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestReadSpread_Interpret(t *testing.T) {
	interp := &stubInterpreter{out: ports.InterpretOutput{
		Text:       "A new chapter begins.",
		Style:      "neutral",
		Disclaimer: "For entertainment.",
		Model:      "qwen/qwen3-4b:free",
	}}
	e := newServer(t, interp, nil)

	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0,1&interpret=true&q=career&lang=en")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[httpadapter.ReadSpreadResponse](t, rec)
	if resp.Interpretation == nil || resp.Interpretation.Text != "A new chapter begins." {
		t.Fatalf("expected interpretation, got %+v", resp)
	}
	if resp.Meta == nil || resp.Meta.Model != "qwen/qwen3-4b:free" || resp.Meta.RequestID == "" {
		t.Errorf("unexpected meta: %+v", resp.Meta)
	}
	if interp.in.Question != "career" || interp.in.Lang != "en" || len(interp.in.Cards) != 2 {
		t.Errorf("unexpected interpreter input: %+v", interp.in)
	}
}

func TestReadSpread_InterpretUpstreamError(t *testing.T) {
	e := newServer(t, &stubInterpreter{err: errors.Join(domain.ErrUpstreamLLM, errors.New("status 500"))}, nil)
	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0&interpret=true")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if resp := decode[httpadapter.ErrorResponse](t, rec); resp.Error != "upstream LLM failure" {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

func TestHTMLFlow(t *testing.T) {
	e := newServer(t, nil, nil)

	rec := do(e, http.MethodGet, "/api/html/create-spread")
	if rec.Code != http.StatusOK {
		t.Fatalf("picker: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/html/create-spread/72?seed=") {
		t.Error("picker: expected a link for card 72")
	}

	rec = do(e, http.MethodGet, "/api/html/create-spread/5?seed=test1")
	if rec.Code != http.StatusOK {
		t.Fatalf("picked: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/html/spread/test1?choose=5,1") {
		t.Error("picked: expected continue link")
	}

	rec = do(e, http.MethodGet, "/api/html/spread/test1?choose=1,2")
	if rec.Code != http.StatusOK {
		t.Fatalf("reading: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, s := range []string{"1. Queen of Swords", "2. The Lovers", "/api/html/spread/test1?choose=1,2,3"} {
		if !strings.Contains(body, s) {
			t.Errorf("reading: expected %q in page", s)
		}
	}
}

func TestHTMLFlow_Errors(t *testing.T) {
	e := newServer(t, nil, nil)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"zero position", "/api/html/spread/test1?choose=0", "Invalid card index: 0"},
		{"past the deck", "/api/html/spread/test1?choose=1,73", "Invalid card index: 73"},
		{"not a number", "/api/html/spread/test1?choose=two", "Invalid card index: two"},
		{"picked out of range", "/api/html/create-spread/99?seed=test1", "Invalid card index: 99"},
		{"picked without seed", "/api/html/create-spread/3", "Invalid or missing seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("expected %q in page", tt.want)
			}
		})
	}
}

func TestPrivacyPolicy(t *testing.T) {
	rec := do(newServer(t, nil, nil), http.MethodGet, "/api/privacy-policy")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Privacy Policy") {
		t.Errorf("got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	e := newServer(t, nil, nil)
	e.Use(httpadapter.CORSMiddleware([]string{"*"}))

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set(echo.HeaderOrigin, "https://elsewhere.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Errorf("expected wildcard CORS, got %q", got)
	}
}

func TestReadSpread_QuestionLengthCountsCharacters(t *testing.T) {
	e := newServer(t, nil, nil)

	rec := do(e, http.MethodGet, "/api/spread/test1?choose=0&q="+url.QueryEscape(strings.Repeat("é", 500)))
	if rec.Code != http.StatusOK {
		t.Errorf("500 two-byte characters: expected 200, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/spread/test1?choose=0&q="+url.QueryEscape(strings.Repeat("é", 501)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("501 characters: expected 400, got %d", rec.Code)
	}
}
