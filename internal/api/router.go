package api

import (
	"net/http"

	"finance_portal/internal/config"
	"finance_portal/internal/credentials"
	"finance_portal/internal/ledger"
	"finance_portal/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRouter wires the stores, middlewares and handlers. rdb may be nil to run without a cache.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(middleware.LoggerMiddleware(), middleware.RecoveryMiddleware()) // Logger outermost so panics are logged too

	users := credentials.NewStore(db)
	accounts := ledger.NewAccounts(db)
	mutator := ledger.NewMutator(db)
	history := ledger.NewHistory(db)
	stats := ledger.NewStatistics(db)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes
	r.POST("/user", RegisterHandler(users))
	r.POST("/session", LoginHandler(users, cfg.JWTSecret, cfg.IsProd))
	r.DELETE("/session", LogoutHandler(cfg.IsProd))

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	account := r.Group("/account", auth)
	{
		account.GET("", GetAccountHandler(accounts, history, rdb, cfg.HistoryLimit, cfg.CacheTTL))
		account.POST("/deposit", DepositHandler(accounts, mutator, rdb))
		account.POST("/withdraw", WithdrawHandler(accounts, mutator, rdb))
		account.GET("/transactions", GetTransactionHistoryHandler(history, rdb, cfg.CacheTTL))
	}

	profile := r.Group("/profile", auth)
	{
		profile.GET("", ProfileHandler(users, history))
		profile.PUT("/password", ChangePasswordHandler(users))
	}

	admin := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(users))
	{
		admin.GET("/stats", StatsHandler(stats, rdb, cfg.CacheTTL))
		admin.GET("/users", ListUsersHandler(stats, rdb, cfg.CacheTTL))
		admin.GET("/transactions", ListTransactionsHandler(stats, rdb, cfg.CacheTTL))
	}

	return r
}
