// Package http 交易所服务的 Gin HTTP 接入层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchange/internal/exchange/application"
	"github.com/wyfcoding/exchange/internal/exchange/domain"
)

// Handler HTTP 处理器
type Handler struct {
	orderService   *application.OrderService
	accountService *application.AccountService
}

// NewHandler 创建 HTTP 处理器
func NewHandler(orderService *application.OrderService, accountService *application.AccountService) *Handler {
	return &Handler{
		orderService:   orderService,
		accountService: accountService,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/orders", h.PlaceOrder)
		v1.GET("/orders", h.ListOpenOrders)
		v1.GET("/orders/:id", h.GetOrder)
		v1.DELETE("/orders/:id", h.CancelOrder)

		v1.POST("/accounts", h.CreateAccount)
		v1.POST("/accounts/:id/deposit", h.Deposit)
		v1.POST("/accounts/:id/assets/deposit", h.DepositAsset)
		v1.GET("/accounts/:id/profile", h.GetProfile)
		v1.GET("/accounts/:id/ledger", h.GetLedger)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// placeOrderRequest 下单请求
type placeOrderRequest struct {
	AccountID uint   `json:"account_id" binding:"required"`
	Symbol    string `json:"symbol" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Price     string `json:"price" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

// PlaceOrder 下限价单
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Side:      domain.OrderSide(req.Side),
		Price:     price,
		Amount:    amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// GetOrder 查询订单
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

// ListOpenOrders 列出 OPEN 订单
func (h *Handler) ListOpenOrders(c *gin.Context) {
	orders, err := h.orderService.ListOpenOrders(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// createAccountRequest 开户请求
type createAccountRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateAccount 开立资金账户
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": account})
}

// depositRequest 现金入金请求
type depositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// Deposit 现金入金
func (h *Handler) Deposit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	account, err := h.accountService.Deposit(c.Request.Context(), id, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": account})
}

// depositAssetRequest 资产入金请求
type depositAssetRequest struct {
	Symbol string `json:"symbol" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// DepositAsset 资产入金
func (h *Handler) DepositAsset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req depositAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	holding, err := h.accountService.DepositAsset(c.Request.Context(), id, req.Symbol, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": holding})
}

// GetProfile 账户概览
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	profile, err := h.accountService.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// GetLedger 账本流水分页
func (h *Handler) GetLedger(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.accountService.GetLedger(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": page})
}

// parseID 解析路径中的数字 ID
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// respondError 按错误类别映射 HTTP 状态码：
// 参数校验 400，资源不存在 404，业务规则 422，并发竞争 409，完整性缺陷 500
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrAssetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAssets),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrOrderNotCancellable):
		status = http.StatusUnprocessableEntity
	case domain.IsRetryable(err):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
