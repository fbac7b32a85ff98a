package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"retail-ledger/internal/config"
	"retail-ledger/internal/logging"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type ServerTestSuite struct {
	suite.Suite
	server *Server
}

func (suite *ServerTestSuite) SetupTest() {
	cfg := &config.Config{
		JournalDriver:         config.JournalNone,
		SeedSampleData:        true,
		StatisticsRecentLimit: 5,
	}
	srv, err := NewServer(cfg, logging.Discard())
	require.NoError(suite.T(), err)
	suite.server = srv
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.server.Stop(context.Background())
}

func (suite *ServerTestSuite) do(method, path, user, password string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	rec := httptest.NewRecorder()
	suite.server.GetRouter().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (suite *ServerTestSuite) TestHealth() {
	rec, _ := suite.do("GET", "/health", "", "", nil)

	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(suite.T(), rec.Header().Get("X-Request-ID"))
}

func (suite *ServerTestSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()

	suite.server.GetRouter().ServeHTTP(rec, req)

	assert.Equal(suite.T(), "req-42", rec.Header().Get("X-Request-ID"))
}

func (suite *ServerTestSuite) TestProtectedRoutesRequireCredentials() {
	rec, env := suite.do("GET", "/me", "", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(suite.T(), rec.Header().Get("WWW-Authenticate"))
	require.NotNil(suite.T(), env.Error)
	assert.Equal(suite.T(), "unauthorized", env.Error.Code)

	rec, _ = suite.do("GET", "/me", "user1", "wrong", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *ServerTestSuite) TestSeededAccountsVisibleToOwner() {
	rec, env := suite.do("GET", "/users/user1/accounts", "user1", "password", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var accounts []struct {
		AccountID string `json:"account_id"`
		Balance   string `json:"balance"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &accounts))
	require.Len(suite.T(), accounts, 2)
	assert.Equal(suite.T(), "CHK-001", accounts[0].AccountID)
	assert.Equal(suite.T(), "2175.00", accounts[0].Balance)
	assert.Equal(suite.T(), "SAV-001", accounts[1].AccountID)
	assert.Equal(suite.T(), "10200.00", accounts[1].Balance)
}

func (suite *ServerTestSuite) TestCustomerCannotReadOtherAccounts() {
	rec, _ := suite.do("GET", "/accounts/CHK-002", "user1", "password", nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)

	rec, _ = suite.do("GET", "/users/user2/accounts", "user1", "password", nil)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)

	rec, _ = suite.do("GET", "/statistics", "user1", "password", nil)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
}

func (suite *ServerTestSuite) TestTransferFlow() {
	rec, env := suite.do("POST", "/transactions", "user1", "password", map[string]string{
		"source_account_id":      "CHK-001",
		"destination_account_id": "CHK-002",
		"amount":                 "75.25",
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)

	var created struct {
		TransactionID string `json:"transaction_id"`
		Description   string `json:"description"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &created))
	assert.Equal(suite.T(), "TRX-006", created.TransactionID)
	assert.Equal(suite.T(), "Fund Transfer", created.Description)

	rec, env = suite.do("GET", "/accounts/CHK-001", "user1", "password", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var account struct {
		Balance string `json:"balance"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &account))
	assert.Equal(suite.T(), "2099.75", account.Balance)

	rec, env = suite.do("GET", "/accounts/CHK-001/transactions", "user1", "password", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var history []struct {
		TransactionID string `json:"transaction_id"`
		Kind          string `json:"kind"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &history))
	require.NotEmpty(suite.T(), history)
	assert.Equal(suite.T(), "TRX-006", history[0].TransactionID)
	assert.Equal(suite.T(), "Debit", history[0].Kind)
}

func (suite *ServerTestSuite) TestTransferInsufficientFunds() {
	rec, env := suite.do("POST", "/transactions", "user1", "password", map[string]string{
		"source_account_id":      "CHK-001",
		"destination_account_id": "SAV-001",
		"amount":                 "999999.00",
	})

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(suite.T(), env.Error)
	assert.Equal(suite.T(), "insufficient_funds", env.Error.Code)
}

func (suite *ServerTestSuite) TestAdminRoutes() {
	rec, env := suite.do("GET", "/statistics", "admin", "admin123", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)

	var stats struct {
		TotalAccounts     int    `json:"total_accounts"`
		TotalBalance      string `json:"total_balance"`
		TotalTransactions int    `json:"total_transactions"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &stats))
	assert.Equal(suite.T(), 4, stats.TotalAccounts)
	assert.Equal(suite.T(), "31000.00", stats.TotalBalance)
	assert.Equal(suite.T(), 5, stats.TotalTransactions)

	rec, _ = suite.do("POST", "/accounts", "admin", "admin123", map[string]string{
		"owner_id":        "user2",
		"kind":            "loan",
		"initial_balance": "0",
	})
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)

	rec, _ = suite.do("GET", "/accounts", "admin", "admin123", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	rec, _ = suite.do("GET", "/users", "admin", "admin123", nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestRegisterThenAuthenticate() {
	rec, _ := suite.do("POST", "/users", "", "", map[string]string{
		"username":   "user3",
		"password":   "secret",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)

	rec, env := suite.do("GET", "/me", "user3", "secret", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	var me struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &me))
	assert.Equal(suite.T(), "user3", me.UserID)
	assert.Equal(suite.T(), "CUSTOMER", me.Role)

	rec, _ = suite.do("POST", "/users", "", "", map[string]string{"username": "user3", "password": "x"})
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{JournalDriver: config.JournalNone, RateLimit: "2-M"}
	srv, err := NewServer(cfg, logging.Discard())
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.GetRouter().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewServerRejectsBadRateLimit(t *testing.T) {
	_, err := NewServer(&config.Config{JournalDriver: config.JournalNone, RateLimit: "lots"}, logging.Discard())
	assert.Error(t, err)
}
