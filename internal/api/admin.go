package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time filters and TTL

	"finance_portal/internal/domain" // Payment types
	"finance_portal/internal/ledger" // Statistics
	"finance_portal/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const adminCachePrefix = "admin:"

// pagination reads page and page_size, defaulting to 1 and 20 with page_size capped at 100
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}

// StatsHandler returns the admin dashboard
func StatsHandler(stats *ledger.Statistics, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cacheKey := adminCachePrefix + "stats"
		var cached ledger.Dashboard
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"dashboard": cached, "cached": true})
			return
		}
		dash, err := stats.Dashboard(ctx)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to build dashboard")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, dash, ttl)
		c.JSON(http.StatusOK, gin.H{"dashboard": dash, "cached": false})
	}
}

// UserPage is a page of users with their balances
type UserPage struct {
	Users      []ledger.UserBalance `json:"users"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	Total      int64                `json:"total"`
	TotalPages int                  `json:"total_pages"`
	Cached     bool                 `json:"cached"`
}

// ListUsersHandler returns all users with their account info
func ListUsersHandler(stats *ledger.Statistics, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		cacheKey := adminCachePrefix + "users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)

		var resp UserPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		users, total, err := stats.ListUsers(ctx, page, pageSize)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to list users")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		resp = UserPage{Users: users, Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages(total, pageSize)}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl)
		c.JSON(http.StatusOK, resp)
	}
}

// TransactionPage is a page of the ledger
type TransactionPage struct {
	Transactions []ledger.LedgerRow `json:"transactions"`
	Page         int                `json:"page"`
	PageSize     int                `json:"page_size"`
	Total        int64              `json:"total"`
	TotalPages   int                `json:"total_pages"`
	Cached       bool               `json:"cached"`
}

// parseTimeFilter accepts RFC3339 or a plain date
func parseTimeFilter(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// transactionFilter builds the ledger filter from the query string
func transactionFilter(c *gin.Context) (ledger.TransactionFilter, bool) {
	var f ledger.TransactionFilter
	f.Page, f.PageSize = pagination(c)
	if userID := c.Query("user_id"); userID != "" {
		v, err := strconv.ParseUint(userID, 10, 64)
		if err != nil {
			return f, false
		}
		f.UserID = uint(v) // Filter by user ID
	}
	switch txType := c.Query("type"); txType {
	case "", domain.PaymentDeposit, domain.PaymentWithdrawal:
		f.Type = txType // Filter by payment type
	default:
		return f, false
	}
	var err error
	if f.From, err = parseTimeFilter(c.Query("from")); err != nil {
		return f, false
	}
	if f.To, err = parseTimeFilter(c.Query("to")); err != nil {
		return f, false
	}
	return f, true
}

// ListTransactionsHandler returns the ledger, with optional filtering by user, type, or date
func ListTransactionsHandler(stats *ledger.Statistics, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		f, ok := transactionFilter(c)
		if !ok {
			respond(c, http.StatusBadRequest, "invalid_filter", nil)
			return
		}
		var keyParts []string // Parts of the cache key
		for _, k := range []string{"user_id", "type", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k))
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(f.Page), "size="+strconv.Itoa(f.PageSize))
		cacheKey := adminCachePrefix + "txs:" + strings.Join(keyParts, ":")

		var resp TransactionPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &resp); err == nil && found {
			resp.Cached = true
			c.JSON(http.StatusOK, resp)
			return
		}
		rows, total, err := stats.ListTransactions(ctx, f)
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to list transactions")
			respond(c, http.StatusInternalServerError, "failed", nil)
			return
		}
		resp = TransactionPage{Transactions: rows, Page: f.Page, PageSize: f.PageSize, Total: total, TotalPages: totalPages(total, f.PageSize)}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl)
		c.JSON(http.StatusOK, resp)
	}
}
