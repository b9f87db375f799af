package model

import "time"

// Defaults applied to newly registered users.
const (
	DefaultCurrency = "INR"
	DefaultTimezone = "Asia/Kolkata"
)

// User is an account holder. PasswordHash never leaves the server.
type User struct {
	CreatedAt    time.Time `json:"createdAt"`
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Currency     string    `json:"currency"`
	Timezone     string    `json:"timezone"`
	Age          int       `json:"age"`
}
