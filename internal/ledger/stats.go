package ledger

import (
	"context"
	"time"

	"finance_portal/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserBalance is one user row of the admin listings. Balance is null for users
// who never touched their account.
type UserBalance struct {
	UserID    uint                `json:"user_id"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Role      string              `json:"role"`
	Email     string              `json:"email"`
	Username  string              `json:"user_name"`
	AccountID *uint               `json:"account_id"`
	Balance   decimal.NullDecimal `json:"balance"`
}

// TransactionStats aggregates the whole ledger by payment type
type TransactionStats struct {
	Total            int64           `json:"total_transactions" gorm:"column:total_transactions"`
	Deposits         int64           `json:"total_deposits" gorm:"column:total_deposits"`
	Withdrawals      int64           `json:"total_withdrawals" gorm:"column:total_withdrawals"`
	DepositAmount    decimal.Decimal `json:"total_deposit_amount" gorm:"column:total_deposit_amount"`
	WithdrawalAmount decimal.Decimal `json:"total_withdrawal_amount" gorm:"column:total_withdrawal_amount"`
}

// Dashboard is the admin overview
type Dashboard struct {
	TotalUsers       int64            `json:"total_users"`
	Users            []UserBalance    `json:"users"`
	TransactionStats TransactionStats `json:"transaction_stats"`
}

// TransactionFilter narrows the admin ledger listing. Zero values do not filter.
type TransactionFilter struct {
	UserID   uint
	Type     string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// LedgerRow is one transaction in the admin ledger listing
type LedgerRow struct {
	TransactionID uint            `json:"transaction_id"`
	AccountID     uint            `json:"account_id"`
	UserID        uint            `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Time          time.Time       `json:"time"`
	PaymentType   string          `json:"payment_type"`
}

// Statistics serves the admin dashboard
type Statistics struct {
	db *gorm.DB
}

func NewStatistics(db *gorm.DB) *Statistics {
	return &Statistics{db: db}
}

const transactionStatsQuery = `
SELECT
	COUNT(*) AS total_transactions,
	COALESCE(SUM(CASE WHEN p.type = 'deposit' THEN 1 ELSE 0 END), 0) AS total_deposits,
	COALESCE(SUM(CASE WHEN p.type = 'withdrawal' THEN 1 ELSE 0 END), 0) AS total_withdrawals,
	COALESCE(SUM(CASE WHEN p.type = 'deposit' THEN t.amount ELSE 0 END), 0) AS total_deposit_amount,
	COALESCE(SUM(CASE WHEN p.type = 'withdrawal' THEN ABS(t.amount) ELSE 0 END), 0) AS total_withdrawal_amount
FROM transactions AS t
JOIN payments AS p ON t.payment_id = p.payment_id`

// Dashboard returns user totals, every user with their balance, and ledger totals
func (s *Statistics) Dashboard(ctx context.Context) (*Dashboard, error) {
	users, total, err := s.ListUsers(ctx, 1, 0) // Every user, unpaginated
	if err != nil {
		return nil, err
	}

	var stats TransactionStats
	if err := s.db.WithContext(ctx).Raw(transactionStatsQuery).Scan(&stats).Error; err != nil {
		return nil, domain.Persistence("transaction stats", err)
	}

	return &Dashboard{TotalUsers: total, Users: users, TransactionStats: stats}, nil
}

// ListUsers returns a page of users ordered by id along with the total user count.
// A non-positive pageSize returns every user.
func (s *Statistics) ListUsers(ctx context.Context, page, pageSize int) ([]UserBalance, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence("count users", err)
	}

	query := s.db.WithContext(ctx).Preload("Account").Order("user_id") // Users without an account keep a nil Account
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize) // Apply pagination
	}
	var users []domain.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, domain.Persistence("list users", err)
	}

	out := make([]UserBalance, len(users))
	for i, u := range users {
		out[i] = UserBalance{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			Email:     u.Email,
			Username:  u.Username,
		}
		if u.Account != nil {
			id := u.Account.ID
			out[i].AccountID = &id
			out[i].Balance = decimal.NewNullDecimal(u.Account.Balance)
		}
	}
	return out, total, nil
}

// ListTransactions returns a page of the ledger, newest first, with the total
// number of matching rows
func (s *Statistics) ListTransactions(ctx context.Context, f TransactionFilter) ([]LedgerRow, int64, error) {
	if f.Page < 1 {
		f.Page = 1 // Default page number
	}
	if f.PageSize <= 0 {
		f.PageSize = 20 // Default page size
	}
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).
			Table("transactions AS t").
			Joins("JOIN payments AS p ON p.payment_id = t.payment_id").
			Joins("JOIN accounts AS a ON a.account_id = t.account_id")
		if f.UserID != 0 {
			q = q.Where("a.user_id = ?", f.UserID) // Filter by user ID
		}
		if f.Type != "" {
			q = q.Where("p.type = ?", f.Type) // Filter by payment type
		}
		if f.From != nil {
			q = q.Where("t.time >= ?", f.From.UTC()) // Filter by start date
		}
		if f.To != nil {
			q = q.Where("t.time <= ?", f.To.UTC()) // Filter by end date
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, domain.Persistence("count transactions", err)
	}

	rows := []LedgerRow{}
	err := base().
		Select("t.transaction_id, t.account_id, a.user_id, t.amount, t.time, p.type AS payment_type").
		Order("t.time DESC, t.transaction_id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, domain.Persistence("list transactions", err)
	}
	return rows, total, nil
}
