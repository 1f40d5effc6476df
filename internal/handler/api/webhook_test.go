package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradevision/internal/domain/models"
	"tradevision/internal/events"
	"tradevision/internal/repository/memory"
	"tradevision/internal/service/auth"
	"tradevision/internal/service/idempotency"
	"tradevision/internal/service/signalcache"
	"tradevision/internal/usecase"
	pkgcache "tradevision/pkg/cache"
	applogger "tradevision/pkg/logger"
	"tradevision/pkg/metrics"
)

var testRecorder = metrics.New()

type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	echo      *echo.Echo
	validator *auth.Validator
	symbols   *memory.SymbolStore
	signals   *memory.SignalStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	l := applogger.Nop()
	symbols := memory.NewSymbolStore()
	signals := memory.NewSignalStore()
	verdicts := memory.NewVerdictStore()
	stats := memory.NewStatsStore()

	validator := auth.NewValidator("test-secret", []string{"BTCUSDT", "ETHUSDT"})
	gate := idempotency.NewGate(pkgcache.NewMemoryCache(), time.Hour)
	lastCache := signalcache.New(pkgcache.NewMemoryCache(), time.Minute)
	agg := usecase.NewStatsAggregator(signals, verdicts, stats, l, testRecorder)
	ingestor := usecase.NewIngestor(
		validator, gate, symbols, signals, lastCache, agg,
		events.NoopPublisher{}, testRecorder, l,
	)

	e := echo.New()
	NewRouter(
		NewWebhookHandler(ingestor, validator, l, true),
		NewPublicHandler(ingestor, agg, symbols, l),
	).RegisterRoutes(e)

	return &testServer{echo: e, validator: validator, symbols: symbols, signals: signals}
}

func (s *testServer) do(method, path, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func eventBody(t *testing.T, symbol, tf, dir string) string {
	t.Helper()
	b, err := json.Marshal(models.WebhookEvent{
		TS:        time.Now().UnixMilli(),
		Symbol:    symbol,
		TF:        tf,
		Direction: dir,
	})
	require.NoError(t, err)
	return string(b)
}

func TestReceiveCreatesSignal(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "BTCUSDT", "5m", "UP")

	rec := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	var result models.WebhookResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.StatusSuccess, result.Status)
	require.NotNil(t, result.SignalID)
	assert.NotZero(t, *result.SignalID)
}

func TestReceiveDuplicateReturnsOK(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "BTCUSDT", "5m", "UP")
	sig := s.validator.Sign([]byte(body))

	first := s.do(http.MethodPost, "/api/tv-hook", body, sig)
	require.Equal(t, http.StatusCreated, first.Code)

	second := s.do(http.MethodPost, "/api/tv-hook", body, sig)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &env))
	var result models.WebhookResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, models.StatusDuplicate, result.Status)
	assert.Nil(t, result.SignalID)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "BTCUSDT", "5m", "UP")

	cases := map[string]string{
		"missing":  "",
		"bogus":    "deadbeef",
		"tampered": s.validator.Sign([]byte(body + " ")),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/tv-hook", body, sig)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestReceiveRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	body := `{"ts":`

	rec := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveRejectsInvalidDirection(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "BTCUSDT", "5m", "SIDEWAYS")

	rec := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveRejectsDisallowedSymbol(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "DOGEUSDT", "5m", "UP")

	rec := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveTestSkipsSignature(t *testing.T) {
	s := newTestServer(t)
	body := eventBody(t, "BTCUSDT", "5m", "DOWN")

	rec := s.do(http.MethodPost, "/api/tv-hook/test", body, "")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLatestSignalEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/signal?symbol=BTCUSDT&tf=5m", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := eventBody(t, "BTCUSDT", "5m", "UP")
	created := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	require.Equal(t, http.StatusCreated, created.Code)

	rec = s.do(http.MethodGet, "/api/signal?symbol=btcusdt&tf=5m", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var snap models.SignalSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, "5m", snap.TF)
}

func TestLatestSignalValidatesQuery(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/signal?tf=5m", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/signal?symbol=BTCUSDT", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/signal?symbol=BTCUSDT&tf=2h", "", "").Code)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/stats?symbol=BTCUSDT&tf=5m", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "unknown symbol")

	body := eventBody(t, "BTCUSDT", "5m", "UP")
	created := s.do(http.MethodPost, "/api/tv-hook", body, s.validator.Sign([]byte(body)))
	require.Equal(t, http.StatusCreated, created.Code)

	rec = s.do(http.MethodGet, "/api/stats?symbol=BTCUSDT&tf=5m", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var view models.StatsView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "BTCUSDT", view.Symbol)
	assert.Equal(t, int64(1), view.SignalsCount)
	assert.Equal(t, models.BreakEvenWinrate, view.BreakEvenAt)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
