package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcart/groupbuy-backend/internal/feed"
	"github.com/streetcart/groupbuy-backend/internal/grouporders"
	"github.com/streetcart/groupbuy-backend/internal/lifecycle"
	"github.com/streetcart/groupbuy-backend/internal/participation"
	pkgAuth "github.com/streetcart/groupbuy-backend/pkg/auth"
	"github.com/streetcart/groupbuy-backend/pkg/config"
	"github.com/streetcart/groupbuy-backend/pkg/db"
	"github.com/streetcart/groupbuy-backend/pkg/db/dbtest"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	"github.com/streetcart/groupbuy-backend/pkg/geo"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
	"github.com/streetcart/groupbuy-backend/pkg/outbox"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

type straightRouter struct{}

func (straightRouter) Route(_ context.Context, from, to geo.Coordinate) []geo.Coordinate {
	return []geo.Coordinate{from, to}
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "groupbuy-test",
			ExpirationMinutes: 30,
		},
		Orders: config.OrdersConfig{StoreTimeout: 5 * time.Second},
	}
}

func newTestServer(t *testing.T, redisPing error) *testServer {
	t.Helper()
	conn := dbtest.NewSQLite(t)
	client := db.FromGorm(conn)
	repo := grouporders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.Nop())

	orderFeed := feed.New(repo, logger.Nop(), 0)
	engine, err := participation.NewEngine(participation.Params{
		DB:       client,
		Repo:     repo,
		Outbox:   emitter,
		Notifier: feed.NopNotifier{},
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	ctrl, err := lifecycle.NewController(repo, client, emitter, engine, decimal.NewFromInt(5), logger.Nop())
	require.NoError(t, err)

	cfg := testConfig()
	handler := NewRouter(
		cfg,
		logger.Nop(),
		stubPinger{},
		stubPinger{err: redisPing},
		nil,
		nil,
		nil,
		ctrl,
		engine,
		orderFeed,
		straightRouter{},
		nil,
	)
	return &testServer{handler: handler, cfg: cfg}
}

func (s *testServer) token(t *testing.T, role enums.UserRole, name string) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := pkgAuth.MintAccessToken(s.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: id,
		Name:   name,
		Role:   role,
	})
	require.NoError(t, err)
	return id, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type orderPayload struct {
	ID               uuid.UUID         `json:"id"`
	Status           enums.OrderStatus `json:"status"`
	TotalQuantity    int               `json:"total_quantity"`
	Remaining        int               `json:"remaining"`
	ParticipantCount int               `json:"participant_count"`
	Joined           bool              `json:"joined"`
	Participants     []json.RawMessage `json:"participants"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func createBody(minQty, maxQty int) map[string]any {
	return map[string]any{
		"item":           "Onions",
		"description":    "Nashik red onions, 50kg sacks",
		"unit":           "kg",
		"bulk_price":     "20",
		"original_price": "28",
		"min_quantity":   minQty,
		"max_quantity":   maxQty,
		"deadline":       time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"location_name":  "Lasalgaon Market",
		"coordinates":    map[string]float64{"lat": 20.1486, "lng": 74.2294},
		"contact_phone":  "9876543210",
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-GroupBuy-Env"))

	rec = srv.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, rec, &ready)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["redis"])
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, errors.New("connection refused"))

	rec := srv.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", errorCode(t, rec))
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/vendor/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/vendor/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	srv := newTestServer(t, nil)
	_, vendorToken := srv.token(t, enums.UserRoleVendor, "Chaat Corner")
	_, supplierToken := srv.token(t, enums.UserRoleSupplier, "Agro Traders")

	rec := srv.do(t, http.MethodPost, "/api/v1/supplier/orders", vendorToken, createBody(50, 200))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/vendor/orders", supplierToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupOrderFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	_, supplierToken := srv.token(t, enums.UserRoleSupplier, "Agro Traders")
	_, vendorToken := srv.token(t, enums.UserRoleVendor, "Chaat Corner")

	rec := srv.do(t, http.MethodPost, "/api/v1/supplier/orders", supplierToken, createBody(50, 200))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created orderPayload
	decodeData(t, rec, &created)
	assert.Equal(t, enums.OrderStatusOpen, created.Status)
	assert.Equal(t, 200, created.Remaining)

	rec = srv.do(t, http.MethodGet, "/api/v1/vendor/orders", vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var browse []orderPayload
	decodeData(t, rec, &browse)
	require.Len(t, browse, 1)
	assert.False(t, browse[0].Joined)

	joinPath := fmt.Sprintf("/api/v1/vendor/orders/%s/join", created.ID)
	rec = srv.do(t, http.MethodPost, joinPath, vendorToken, map[string]any{
		"quantity": 60,
		"location": map[string]float64{"lat": 19.9975, "lng": 73.7898},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var joined orderPayload
	decodeData(t, rec, &joined)
	assert.Equal(t, 60, joined.TotalQuantity)
	assert.Equal(t, 140, joined.Remaining)
	assert.True(t, joined.Joined)
	assert.Empty(t, joined.Participants)

	rec = srv.do(t, http.MethodPost, joinPath, vendorToken, map[string]any{"quantity": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/vendor/orders/"+created.ID.String()+"/route", vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var route struct {
		Path []geo.Coordinate `json:"path"`
	}
	decodeData(t, rec, &route)
	assert.Len(t, route.Path, 2)

	rec = srv.do(t, http.MethodGet, "/api/v1/supplier/orders", supplierToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []orderPayload
	decodeData(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Participants, 1)

	rec = srv.do(t, http.MethodPost, "/api/v1/supplier/orders/"+created.ID.String()+"/accept", supplierToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted orderPayload
	decodeData(t, rec, &accepted)
	assert.Equal(t, enums.OrderStatusAccepted, accepted.Status)

	participationPath := "/api/v1/vendor/orders/" + created.ID.String() + "/participation"
	rec = srv.do(t, http.MethodPatch, participationPath, vendorToken, map[string]any{"quantity": 150, "phone": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+created.ID.String(), vendorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var unchanged orderPayload
	decodeData(t, rec, &unchanged)
	assert.Equal(t, 60, unchanged.TotalQuantity)
	assert.Equal(t, enums.OrderStatusAccepted, unchanged.Status)

	rec = srv.do(t, http.MethodPatch, participationPath, vendorToken, map[string]any{"quantity": 70, "phone": "9123456780"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited orderPayload
	decodeData(t, rec, &edited)
	assert.Equal(t, 70, edited.TotalQuantity)
	assert.Equal(t, enums.OrderStatusOpen, edited.Status)
}

func TestSupplierCannotTouchAnotherSuppliersOrder(t *testing.T) {
	srv := newTestServer(t, nil)
	_, ownerToken := srv.token(t, enums.UserRoleSupplier, "Agro Traders")
	_, otherToken := srv.token(t, enums.UserRoleSupplier, "Rival Foods")

	rec := srv.do(t, http.MethodPost, "/api/v1/supplier/orders", ownerToken, createBody(50, 200))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created orderPayload
	decodeData(t, rec, &created)

	rec = srv.do(t, http.MethodPost, "/api/v1/supplier/orders/"+created.ID.String()+"/cancel", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/v1/supplier/orders/"+created.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/supplier/orders/"+created.ID.String()+"/cancel", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodDelete, "/api/v1/supplier/orders/"+created.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+created.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedOrderID(t *testing.T) {
	srv := newTestServer(t, nil)
	_, vendorToken := srv.token(t, enums.UserRoleVendor, "Chaat Corner")

	rec := srv.do(t, http.MethodPost, "/api/v1/vendor/orders/not-a-uuid/join", vendorToken, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
