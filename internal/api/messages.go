package api

import (
	"github.com/gin-gonic/gin" // Gin web framework
)

// NoticeKind tells the client how to style a message
type NoticeKind string

const (
	KindError   NoticeKind = "error"
	KindSuccess NoticeKind = "success"
)

// Notice is the user-facing text behind a result code
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

var notices = map[string]Notice{
	"missing_fields":       {KindError, "Please fill in all required fields."},
	"password_mismatch":    {KindError, "Passwords do not match."},
	"invalid_password":     {KindError, "Password must be 8-20 characters and include an uppercase letter, a number and a symbol."},
	"username_exists":      {KindError, "That username is already taken."},
	"email_exists":         {KindError, "An account with that email already exists."},
	"registration_success": {KindSuccess, "Registration successful. You can now log in."},
	"failed":               {KindError, "Request failed. Please check your details and try again."},
	"login_success":        {KindSuccess, "Welcome back."},
	"logout":               {KindSuccess, "You have been logged out."},
	"incorrect_password":   {KindError, "Your current password is incorrect."},
	"account_not_found":    {KindError, "Account not found."},
	"password_updated":     {KindSuccess, "Your password has been updated."},
	"update_error":         {KindError, "Your password could not be updated."},
	"invalid_amount":       {KindError, "Please enter a positive amount with at most two decimal places."},
	"deposit_success":      {KindSuccess, "Deposit successful."},
	"withdrawal_success":   {KindSuccess, "Withdrawal successful."},
	"insufficient_funds":   {KindError, "Insufficient funds for this withdrawal."},
	"transaction_failed":   {KindError, "The transaction could not be completed."},
	"invalid_filter":       {KindError, "Invalid filter value."},
}

// Message returns the notice for a result code. Unknown codes have none.
func Message(code string) (Notice, bool) {
	n, ok := notices[code]
	return n, ok
}

// respond writes the standard envelope: the result code, its message and any extra fields
func respond(c *gin.Context, status int, code string, extra gin.H) {
	body := gin.H{"code": code}
	if n, ok := Message(code); ok {
		body["message"] = n.Text
		body["kind"] = n.Kind
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
