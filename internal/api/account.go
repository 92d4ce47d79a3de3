package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL

	"finance_portal/internal/credentials" // User store
	"finance_portal/internal/domain"      // Domain models
	"finance_portal/internal/ledger"      // Balances and history
	"finance_portal/internal/middleware"  // Context keys
	"finance_portal/internal/utils"       // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// Largest value a DECIMAL(12,2) column holds
var maxAmount = decimal.RequireFromString("9999999999.99")

// AmountRequest represents a deposit or withdrawal. The amount may be sent as a
// JSON number or string.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// parseAmount accepts positive amounts with at most two decimal places
func parseAmount(c *gin.Context) (decimal.Decimal, bool) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount == nil {
		return decimal.Decimal{}, false
	}
	amount := *req.Amount
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) || amount.GreaterThan(maxAmount) {
		return decimal.Decimal{}, false
	}
	return amount, true
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// TransactionView is one history row as returned to the client
type TransactionView struct {
	TransactionID uint      `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

func transactionViews(entries []ledger.HistoryEntry) []TransactionView {
	out := make([]TransactionView, len(entries))
	for i, e := range entries {
		out[i] = TransactionView{TransactionID: e.TransactionID, Amount: money(e.Amount), Time: e.Time, Type: e.PaymentType}
	}
	return out
}

// AccountView is the home page payload
type AccountView struct {
	AccountID    uint              `json:"account_id"`
	FirstName    string            `json:"first_name"`
	Balance      string            `json:"balance"`
	Transactions []TransactionView `json:"transactions"`
	Cached       bool              `json:"cached"`
}

func accountCacheKey(userID uint) string {
	return "account:user:" + strconv.FormatUint(uint64(userID), 10)
}

func historyCachePrefix(userID uint) string {
	return "txhistory:user:" + strconv.FormatUint(uint64(userID), 10) + ":"
}

// invalidateAccount drops every cached read that depends on the user's balance
func invalidateAccount(ctx context.Context, rdb *redis.Client, userID uint) {
	if err := utils.DeleteCache(ctx, rdb, accountCacheKey(userID)); err != nil {
		logrus.WithField("error", err.Error()).Warn("Account cache invalidation failed")
	}
	for _, prefix := range []string{historyCachePrefix(userID), adminCachePrefix} {
		if err := utils.DeleteCachePrefix(ctx, rdb, prefix); err != nil {
			logrus.WithFields(logrus.Fields{"prefix": prefix, "error": err.Error()}).Warn("Cache invalidation failed")
		}
	}
}

// GetAccountHandler returns the user's balance and recent transactions, opening
// the account on first visit
func GetAccountHandler(accounts *ledger.Accounts, history *ledger.History, rdb *redis.Client, historyLimit int, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := c.GetUint(middleware.CtxUserID)
		cacheKey := accountCacheKey(userID)

		var view AccountView
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &view); err == nil && found {
			view.Cached = true
			c.JSON(http.StatusOK, view)
			return
		}

		account, err := accounts.GetOrCreateAccount(ctx, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to resolve account")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		entries, err := history.RecentTransactions(ctx, userID, historyLimit)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to read history")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		view = AccountView{
			AccountID:    account.ID,
			FirstName:    c.GetString(middleware.CtxFirstName),
			Balance:      money(account.Balance),
			Transactions: transactionViews(entries),
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, view, ttl)
		c.JSON(http.StatusOK, view)
	}
}

// mutation is Mutator.Deposit or Mutator.Withdraw
type mutation func(ctx context.Context, accountID uint, amount decimal.Decimal) ledger.Outcome

// mutationHandler validates the amount, resolves the account and applies op
func mutationHandler(accounts *ledger.Accounts, rdb *redis.Client, op mutation, successCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := c.GetUint(middleware.CtxUserID)
		amount, ok := parseAmount(c)
		if !ok {
			respond(c, http.StatusBadRequest, "invalid_amount", nil)
			return
		}
		account, err := accounts.GetOrCreateAccount(ctx, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to resolve account")
			respond(c, http.StatusInternalServerError, "transaction_failed", nil)
			return
		}

		switch op(ctx, account.ID, amount) {
		case ledger.OutcomeSuccess:
			invalidateAccount(ctx, rdb, userID)
			updated, err := accounts.FindAccount(ctx, userID)
			if err != nil {
				respond(c, http.StatusOK, successCode, nil)
				return
			}
			respond(c, http.StatusOK, successCode, gin.H{"balance": money(updated.Balance)})
		case ledger.OutcomeInsufficientFunds:
			respond(c, http.StatusUnprocessableEntity, "insufficient_funds", gin.H{"balance": money(account.Balance)})
		default:
			respond(c, http.StatusInternalServerError, "transaction_failed", nil)
		}
	}
}

// DepositHandler adds funds to the user's account
func DepositHandler(accounts *ledger.Accounts, mutator *ledger.Mutator, rdb *redis.Client) gin.HandlerFunc {
	return mutationHandler(accounts, rdb, mutator.Deposit, "deposit_success")
}

// WithdrawHandler removes funds from the user's account
func WithdrawHandler(accounts *ledger.Accounts, mutator *ledger.Mutator, rdb *redis.Client) gin.HandlerFunc {
	return mutationHandler(accounts, rdb, mutator.Withdraw, "withdrawal_success")
}

// TransactionHistoryView is the transactions page payload
type TransactionHistoryView struct {
	Transactions []TransactionView `json:"transactions"`
	Limit        int               `json:"limit"`
	Cached       bool              `json:"cached"`
}

// GetTransactionHistoryHandler returns the user's newest transactions, ?limit= between 1 and 100
func GetTransactionHistoryHandler(history *ledger.History, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := c.GetUint(middleware.CtxUserID)
		limit := ledger.DefaultHistoryLimit
		if l := c.Query("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
				limit = v // Set limit if valid
			}
		}
		cacheKey := historyCachePrefix(userID) + "limit:" + strconv.Itoa(limit)

		var view TransactionHistoryView
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &view); err == nil && found {
			view.Cached = true
			c.JSON(http.StatusOK, view)
			return
		}
		entries, err := history.RecentTransactions(ctx, userID, limit)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to read history")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		view = TransactionHistoryView{Transactions: transactionViews(entries), Limit: limit}
		_ = utils.SetCache(ctx, rdb, cacheKey, view, ttl)
		c.JSON(http.StatusOK, view)
	}
}

// SpendingView is the spending summary in display form
type SpendingView struct {
	Week        string `json:"week"`
	Month       string `json:"month"`
	ThreeMonths string `json:"three_months"`
	SixMonths   string `json:"six_months"`
	Year        string `json:"year"`
}

// ProfileHandler returns the user's details and spending per trailing window.
// A user who never opened an account sees zero spending.
func ProfileHandler(users *credentials.Store, history *ledger.History) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := c.GetUint(middleware.CtxUserID)
		user, err := users.FindByID(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			respond(c, http.StatusNotFound, "account_not_found", nil)
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to load profile")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		summary, err := history.SpendingSummary(ctx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			summary = ledger.ZeroSummary()
		} else if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to compute spending")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user": user, // Password and salt are never serialised
			"spending": SpendingView{
				Week:        money(summary.Week),
				Month:       money(summary.Month),
				ThreeMonths: money(summary.ThreeMonths),
				SixMonths:   money(summary.SixMonths),
				Year:        money(summary.Year),
			},
		})
	}
}
