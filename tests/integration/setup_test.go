package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	adaptershttp "github.com/iho/tally/internal/adapter/http"
	"github.com/iho/tally/internal/adapter/http/dto"
	"github.com/iho/tally/internal/adapter/http/handler"
	"github.com/iho/tally/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/tally/internal/adapter/repository/redis"
	infraredis "github.com/iho/tally/internal/infrastructure/redis"
	"github.com/iho/tally/internal/usecase"
	"github.com/iho/tally/tests/testutil"
)

// testStack wires the full HTTP stack against real PostgreSQL and Redis
// instances, the same composition cmd/server builds.
type testStack struct {
	DB          *testutil.TestDB
	Router      http.Handler
	AccountRepo *postgres.AccountRepository
	AccountUC   *usecase.AccountUseCase
	TransferUC  *usecase.TransferUseCase
	Retrier     *postgres.Retrier
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	accountRepo := postgres.NewAccountRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	require.NoError(t, err, "failed to connect to redis")
	t.Cleanup(func() { _ = redisClient.Close() })

	accountCache := redisrepo.NewCache(redisClient)

	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, idGen, accountCache, time.Minute, nil)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, nil)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:  handler.NewAccountHandler(accountUC),
		TransferHandler: handler.NewTransferHandler(transferUC, retrier, accountUC),
		HealthHandler:   handler.NewHealthHandler(pool, handler.PingerFunc(infraredis.Pinger(redisClient))),
		Logger:          zerolog.Nop(),
	})

	return &testStack{
		DB:          testDB,
		Router:      router,
		AccountRepo: accountRepo,
		AccountUC:   accountUC,
		TransferUC:  transferUC,
		Retrier:     retrier,
	}
}

// request performs an in-process HTTP request against the stack. A non-nil
// payload is sent as JSON.
func (s *testStack) request(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, body)
	if payload != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, r)
	return w
}

// seed replaces all accounts through the API and returns the response.
func (s *testStack) seed(t *testing.T, items ...dto.SeedAccountItem) dto.ListAccountsResponse {
	t.Helper()

	var payload any
	if len(items) > 0 {
		payload = dto.SeedAccountsRequest{Accounts: items}
	}

	w := s.request(t, http.MethodPost, "/api/v1/accounts/seed", payload)
	require.Equal(t, http.StatusCreated, w.Code, "seed failed: %s", w.Body.String())

	var resp dto.ListAccountsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// errorMessage decodes an API error body and returns its message detail.
func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "not an error body: %s", w.Body.String())
	return resp.Message
}
