package domain

// Roles stored in users.role
const (
	RoleAdmin    = "A" // Administrator
	RoleStandard = "U" // Standard user
)

// User Model
type User struct {
	ID        uint     `gorm:"primaryKey;column:user_id" json:"user_id"`                       // Primary key
	FirstName string   `gorm:"size:50;not null" json:"first_name"`                             // First name
	LastName  string   `gorm:"size:50;not null" json:"last_name"`                              // Last name
	Role      string   `gorm:"type:char(1);not null;default:U" json:"role"`                    // Role: A or U
	Email     string   `gorm:"size:100;uniqueIndex;not null" json:"email"`                     // Unique email
	Username  string   `gorm:"column:user_name;size:50;uniqueIndex;not null" json:"user_name"` // Unique username
	Password  string   `gorm:"size:255;not null" json:"-"`                                     // Hash, or plaintext on legacy rows
	Salt      *string  `gorm:"size:64" json:"-"`                                               // Empty or NULL marks a legacy record
	Account   *Account `gorm:"foreignKey:UserID;references:ID" json:"account,omitempty"`       // One-to-one, created lazily
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SaltValue returns the stored salt, or "" for legacy records
func (u *User) SaltValue() string {
	if u.Salt == nil {
		return ""
	}
	return *u.Salt
}
