package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anonpair/backend/internal/api/handler"
	"anonpair/backend/internal/chathub"
	"anonpair/backend/internal/models"
	"anonpair/backend/internal/wsgate"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type fixedStats chathub.Stats

func (s fixedStats) Snapshot() chathub.Stats { return chathub.Stats(s) }

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, chathub.Event) error { return nil }

func newRouter(t *testing.T) (*gin.Engine, *wsgate.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := wsgate.NewHub(nopSubmitter{})
	h := handler.NewHandler(fixedStats{Waiting: 1, Sessions: 2, Users: 5}, hub, secret, time.Hour, "anonpair-service")
	r := gin.New()
	h.Register(r)
	return r, hub
}

func get(r http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t)

	w := get(r, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStats(t *testing.T) {
	r, _ := newRouter(t)

	w := get(r, "/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"waiting":1,"sessions":2,"users":5}`, w.Body.String())
}

type anonResponse struct {
	Token  string `json:"token"`
	AnonID int64  `json:"anon_id"`
}

func mint(t *testing.T, r http.Handler) anonResponse {
	t.Helper()
	w := get(r, "/anonid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp anonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetAnonID_IssuesNegativeIdentity(t *testing.T) {
	r, _ := newRouter(t)

	resp := mint(t, r)

	assert.Less(t, resp.AnonID, int64(0))
	assert.NotEmpty(t, resp.Token)

	var claims handler.AnonClaims
	_, err := jwt.ParseWithClaims(resp.Token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.AnonID, claims.UID)
	assert.Equal(t, "anonpair-service", claims.Issuer)
}

func TestNewAnonID_FitsJavaScriptIntegers(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := handler.NewAnonID()
		require.NoError(t, err)
		assert.True(t, id.IsAnon())
		assert.GreaterOrEqual(t, int64(id), -(int64(1) << 53))
	}
}

func TestServeWebSocket_RejectsMissingOrBadToken(t *testing.T) {
	r, _ := newRouter(t)

	w := get(r, "/ws", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/ws", http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, handler.AnonClaims{
		UID: -1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "anonpair-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	w = get(r, "/ws?token="+signed, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_RejectsPositiveIdentity(t *testing.T) {
	r, _ := newRouter(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, handler.AnonClaims{
		UID: 12345,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "anonpair-service",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	w := get(r, "/ws", http.Header{"Authorization": {"Bearer " + signed}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_Upgrades(t *testing.T) {
	r, hub := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	resp := mint(t, r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + resp.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return hub.Connected(models.UserID(resp.AnonID))
	}, time.Second, 5*time.Millisecond)
}
