package http

// CreateSpreadResponse is the JSON shape returned by /api/create-spread.
type CreateSpreadResponse struct {
	Seed        string `json:"seed"`
	TotalCards  int    `json:"total_cards"`
	Timestamp   int64  `json:"timestamp"`
	Token       string `json:"token,omitempty"`
	URL         string `json:"url"`
	HTMLURL     string `json:"html_url"`
	DownloadURL string `json:"download_url"`
	RawURL      string `json:"raw_url"`
	TokenURL    string `json:"token_url,omitempty"`
}

// ReadSpreadResponse is the JSON shape returned by /api/spread/:seed.
type ReadSpreadResponse struct {
	Chosen         []ChosenCard        `json:"chosen"`
	Info           *SpreadInfoResp     `json:"info,omitempty"`
	Interpretation *InterpretationResp `json:"interpretation,omitempty"`
	Meta           *MetaResp           `json:"meta,omitempty"`
}

type ChosenCard struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Meaning     string `json:"meaning"`
	Orientation string `json:"orientation"`
}

// SpreadInfoResp explains an empty selection.
type SpreadInfoResp struct {
	TotalCards  int    `json:"total_cards"`
	SeedUsed    string `json:"seed_used"`
	ChooseParam string `json:"choose_param"`
	Message     string `json:"message"`
}

type InterpretationResp struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	Disclaimer string `json:"disclaimer"`
}

type MetaResp struct {
	Model     string `json:"model"`
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

// IndexResponse documents the API.
type IndexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Routes    []string          `json:"routes"`
}

// drawRequest and drawReply are the WebSocket draw messages.
type drawRequest struct {
	Position *int `json:"position"`
}

type drawReply struct {
	Position *int        `json:"position,omitempty"`
	Card     *ChosenCard `json:"card,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
