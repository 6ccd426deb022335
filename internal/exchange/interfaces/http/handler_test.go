package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchange/internal/exchange/application"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
	"github.com/wyfcoding/exchange/internal/exchange/infrastructure/messaging"
	"github.com/wyfcoding/exchange/internal/exchange/infrastructure/persistence/mysql"
	"github.com/wyfcoding/exchange/pkg/idgen"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *application.AccountService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&domain.Account{},
		&domain.AssetHolding{},
		&domain.Order{},
		&domain.LedgerEntry{},
	))

	idGen, err := idgen.New(1)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := messaging.NopEventPublisher{}

	orders := mysql.NewOrderRepository(gdb)
	accounts := mysql.NewAccountRepository(gdb)
	assets := mysql.NewAssetRepository(gdb)
	ledger := mysql.NewLedgerRepository(gdb)

	settlement := application.NewSettlementService(
		orders, accounts, assets, ledger,
		publisher, idGen, domain.DefaultCommissionRate, nil, log,
	)
	orderSvc := application.NewOrderService(
		orders, accounts, assets, ledger,
		settlement, publisher, idGen, []string{"BTC"}, nil, log,
	)
	accountSvc := application.NewAccountService(accounts, assets, ledger, idGen, log)

	engine := gin.New()
	NewHandler(orderSvc, accountSvc).RegisterRoutes(engine)
	return engine, accountSvc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPlaceOrderEndpoint(t *testing.T) {
	router, accountSvc := newTestRouter(t)

	account, err := accountSvc.CreateAccount(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = accountSvc.Deposit(context.Background(), account.ID, decimal.RequireFromString("1000"))
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"account_id": account.ID,
		"symbol":     "BTC",
		"side":       "BUY",
		"price":      "100",
		"amount":     "2",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// 余额不足映射为 422
	w = doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"account_id": account.ID,
		"symbol":     "BTC",
		"side":       "BUY",
		"price":      "100",
		"amount":     "100",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// 参数非法映射为 400
	w = doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"account_id": account.ID,
		"symbol":     "BTC",
		"side":       "BUY",
		"price":      "abc",
		"amount":     "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	router, accountSvc := newTestRouter(t)

	account, err := accountSvc.CreateAccount(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = accountSvc.Deposit(context.Background(), account.ID, decimal.RequireFromString("1000"))
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/v1/orders", gin.H{
		"account_id": account.ID,
		"symbol":     "BTC",
		"side":       "BUY",
		"price":      "100",
		"amount":     "1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID uint `json:"ID"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.Data.ID)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/orders/"+strconv.FormatUint(uint64(created.Data.ID), 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 重复取消映射为 422，不存在映射为 404
	w = doJSON(t, router, http.MethodDelete, "/api/v1/orders/"+strconv.FormatUint(uint64(created.Data.ID), 10), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/orders/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/accounts", gin.H{"user_id": "user-1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data struct {
			ID uint `json:"ID"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := strconv.FormatUint(uint64(created.Data.ID), 10)

	w = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+id+"/deposit", gin.H{"amount": "500"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+id+"/assets/deposit", gin.H{"symbol": "BTC", "amount": "3"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+id+"/profile", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+id+"/ledger", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/99999/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
