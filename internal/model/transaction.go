package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType is the direction of money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// TransactionStatus tracks whether a transaction has been categorized.
type TransactionStatus string

// Transaction status constants.
const (
	StatusPending     TransactionStatus = "pending"
	StatusCategorized TransactionStatus = "categorized"
)

// Transaction represents a single money movement owned by one user.
type Transaction struct {
	Date        time.Time         `json:"date"`
	CreatedAt   time.Time         `json:"createdAt"`
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Source      string            `json:"source,omitempty"` // csv, ofx, plaid, manual
	Hash        string            `json:"-"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	Amount      float64           `json:"amount"` // always positive; Type carries the sign
}

// IsDebit reports whether the transaction is money leaving the account.
func (t *Transaction) IsDebit() bool {
	return t.Type == TypeDebit
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Type,
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// OccurrenceHash is GenerateHash for the nth identical row of one import. The first
// occurrence hashes like GenerateHash; later ones stay distinct so genuine repeats are kept
// while importing the same file twice inserts nothing new.
func (t *Transaction) OccurrenceHash(occurrence int) string {
	base := t.GenerateHash()
	if occurrence <= 0 {
		return base
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", base, occurrence)))
	return fmt.Sprintf("%x", hash)
}

// ExternalHash identifies a transaction by the ID its source assigned, so
// re-importing the same statement or sync page is a no-op.
func (t *Transaction) ExternalHash(externalID string) string {
	hash := sha256.Sum256([]byte(t.UserID + ":" + t.Source + ":" + externalID))
	return fmt.Sprintf("%x", hash)
}
