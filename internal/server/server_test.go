package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	cost "github.com/hanpama/costgraph/internal/cost"
	eventbus "github.com/hanpama/costgraph/internal/eventbus"
	events "github.com/hanpama/costgraph/internal/events"
	schema "github.com/hanpama/costgraph/internal/schema"
	"github.com/stretchr/testify/require"
)

const testSDL = `
type Query {
  ping: String
  books: [Book]
}

type Book {
  title: String
}
`

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	base, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	s, err := cost.NewSchema(base)
	require.NoError(t, err)
	calc := cost.NewCalculator(s, map[string]*cost.Schema{"books": s})
	return New(calc, opts...)
}

func doJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeCost(t *testing.T, rec *httptest.ResponseRecorder) float64 {
	t.Helper()
	var body struct {
		Cost float64 `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Cost
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Message, body.Error.Kind
}

func TestHandler_Estimate(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/estimate", `{"query": "{ books { title } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, 100.0, decodeCost(t, rec))
}

func TestHandler_EstimateSchemaMismatch(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/estimate", `{"query": "{ nosuchfield }"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	msg, kind := decodeError(t, rec)
	require.Contains(t, msg, "nosuchfield")
	require.Equal(t, "schema mismatch", kind)
}

func TestHandler_EstimateUnparsableQuery(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/estimate", `{"query": "{ books {"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Actual(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/actual", `{
		"query": "{ books { title } }",
		"response": {"data": {"books": [{"title": "a"}, {"title": "b"}]}}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2.0, decodeCost(t, rec))
}

func TestHandler_Plan(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/plan", `{
		"plan": {"node": {"kind": "Fetch", "serviceName": "books", "operation": "{ books { title } }"}}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 100.0, decodeCost(t, rec))
}

func TestHandler_PlanUnknownSubgraph(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/plan", `{
		"plan": {"node": {"kind": "Fetch", "serviceName": "inventory", "operation": "{ q }"}}
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, kind := decodeError(t, rec)
	require.Equal(t, "schema mismatch", kind)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/estimate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_UnknownPath(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/nope", `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MissingQuery(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, "/estimate", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UnsupportedContentType(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/estimate", strings.NewReader(`{"query": "{ ping }"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_BodyTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(16))
	rec := doJSON(t, h, "/estimate", `{"query": "{ books { title } }"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandler_ExpiredDeadline(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Unix(0, 0))
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/estimate", strings.NewReader(`{"query": "{ ping }"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	msg, _ := decodeError(t, rec)
	require.Contains(t, msg, "deadline exceeded")
}

func TestHandler_CORSPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://example.com"))
	req := httptest.NewRequest(http.MethodOptions, "/estimate", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_PublishesEstimateEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	var finishes []events.EstimateFinish
	unsub := eventbus.Subscribe(func(_ context.Context, e events.EstimateFinish) {
		finishes = append(finishes, e)
	})
	defer unsub()

	h := newTestHandler(t)
	rec := doJSON(t, h, "/estimate", `{"query": "{ books { title } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, finishes, 1)
	require.Equal(t, "static", finishes[0].Mode)
	require.Equal(t, 100.0, finishes[0].Cost)
	require.NoError(t, finishes[0].Err)
}

func TestHandler_PrettyOutput(t *testing.T) {
	h := newTestHandler(t, WithPretty())
	rec := doJSON(t, h, "/estimate", `{"query": "{ ping }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "\n  ")
}
