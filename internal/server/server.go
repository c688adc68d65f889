package server

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	cost "github.com/hanpama/costgraph/internal/cost"
	eventbus "github.com/hanpama/costgraph/internal/eventbus"
	events "github.com/hanpama/costgraph/internal/events"
	language "github.com/hanpama/costgraph/internal/language"
	plan "github.com/hanpama/costgraph/internal/plan"
	reqid "github.com/hanpama/costgraph/internal/reqid"
)

// Handler is an http.Handler that exposes the cost calculator as a costing
// sidecar: POST /estimate, /actual, and /plan each return the cost of the
// posted operation. The handler never makes admission decisions; it only
// reports numbers.
type Handler struct {
	calc *cost.Calculator
	opt  Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a costing HTTP handler around the given calculator.
func New(calc *cost.Calculator, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{calc: calc, opt: op}
}

type estimateRequest struct {
	Query            string `json:"query"`
	OperationName    string `json:"operationName,omitempty"`
	EstimateRequires bool   `json:"estimateRequires,omitempty"`
}

type actualRequest struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName,omitempty"`
	Response      json.RawMessage `json:"response"`
}

type planRequest struct {
	Plan json.RawMessage `json:"plan"`
}

type costResponse struct {
	Cost float64 `json:"cost"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

const errBodyTooLargeMessage = "request body too large"

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Method: r.Method, Path: r.URL.Path})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Method: r.Method, Path: r.URL.Path, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		h.writeJSON(w, status, errorResponse{Error: errorBody{Message: "method not allowed"}})
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	body, berr := readBody(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(w, status, errorResponse{Error: *berr})
		return
	}

	switch r.URL.Path {
	case "/estimate":
		status = h.handleEstimate(ctx, w, body)
	case "/actual":
		status = h.handleActual(ctx, w, body)
	case "/plan":
		status = h.handlePlan(ctx, w, body)
	default:
		status = http.StatusNotFound
		h.writeJSON(w, status, errorResponse{Error: errorBody{Message: "not found"}})
	}
}

func (h *Handler) handleEstimate(ctx context.Context, w http.ResponseWriter, body []byte) int {
	var req estimateRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Query == "" {
		return h.badRequest(w, "invalid JSON or missing 'query'")
	}
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return h.badRequest(w, err.Error())
	}

	eventbus.Publish(ctx, events.EstimateStart{Query: req.Query, OperationName: req.OperationName, Mode: "static"})
	start := time.Now()
	c, err := h.calc.Estimated(doc, req.EstimateRequires)
	eventbus.Publish(ctx, events.EstimateFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		Mode:          "static",
		Cost:          c,
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		return h.scoringError(w, err)
	}
	if ctx.Err() != nil {
		return h.timeout(w, ctx.Err())
	}
	h.writeJSON(w, http.StatusOK, costResponse{Cost: c})
	return http.StatusOK
}

func (h *Handler) handleActual(ctx context.Context, w http.ResponseWriter, body []byte) int {
	var req actualRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Query == "" || req.Response == nil {
		return h.badRequest(w, "invalid JSON or missing 'query'/'response'")
	}
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return h.badRequest(w, err.Error())
	}
	resp, err := cost.ResponseFromJSON(req.Response)
	if err != nil {
		return h.badRequest(w, err.Error())
	}

	eventbus.Publish(ctx, events.EstimateStart{Query: req.Query, OperationName: req.OperationName, Mode: "actual"})
	start := time.Now()
	c, err := h.calc.Actual(doc, resp)
	eventbus.Publish(ctx, events.EstimateFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		Mode:          "actual",
		Cost:          c,
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		return h.scoringError(w, err)
	}
	if ctx.Err() != nil {
		return h.timeout(w, ctx.Err())
	}
	h.writeJSON(w, http.StatusOK, costResponse{Cost: c})
	return http.StatusOK
}

func (h *Handler) handlePlan(ctx context.Context, w http.ResponseWriter, body []byte) int {
	var req planRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Plan == nil {
		return h.badRequest(w, "invalid JSON or missing 'plan'")
	}
	p, err := plan.Decode(req.Plan)
	if err != nil {
		return h.badRequest(w, err.Error())
	}
	if err := p.InitOperations(); err != nil {
		return h.badRequest(w, err.Error())
	}

	eventbus.Publish(ctx, events.EstimateStart{Mode: "plan"})
	start := time.Now()
	c, err := h.calc.Planned(p)
	eventbus.Publish(ctx, events.EstimateFinish{Mode: "plan", Cost: c, Err: err, Duration: time.Since(start)})
	if err != nil {
		return h.scoringError(w, err)
	}
	if ctx.Err() != nil {
		return h.timeout(w, ctx.Err())
	}
	h.writeJSON(w, http.StatusOK, costResponse{Cost: c})
	return http.StatusOK
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) int {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{Message: msg}})
	return http.StatusBadRequest
}

func (h *Handler) timeout(w http.ResponseWriter, err error) int {
	status := http.StatusServiceUnavailable
	h.writeJSON(w, status, errorResponse{Error: errorBody{Message: err.Error()}})
	return status
}

func (h *Handler) scoringError(w http.ResponseWriter, err error) int {
	body := errorBody{Message: err.Error()}
	if ce, ok := err.(*cost.Error); ok {
		body.Kind = ce.Kind.String()
	}
	status := http.StatusUnprocessableEntity
	h.writeJSON(w, status, errorResponse{Error: body})
	return status
}

func readBody(r *http.Request, maxBody int64) ([]byte, *errorBody) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return nil, &errorBody{Message: "unsupported content type"}
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &errorBody{Message: "failed to read body"}
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, &errorBody{Message: errBodyTooLargeMessage}
	}
	return body, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, c CORSOptions) {
	origin := r.Header.Get("Origin")
	allowed := ""
	for _, o := range c.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = o
			break
		}
	}
	if allowed == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
