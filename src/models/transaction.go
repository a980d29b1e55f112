// src/models/transaction.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrAmountConflict is returned when a record carries both a debit and a credit amount.
// A transaction is either a credit or a debit; anything else is a consistency violation.
var ErrAmountConflict = errors.New("transaction has both credit and debit amounts")

// Transaction is an immutable, normalised transaction record.
// Instances are shared by pointer between the index, the selection engine and the views,
// so nothing may write to a Transaction after the normaliser has built it.
type Transaction struct {
	TransactionNumber      string    `json:"transactionNumber"`
	Date                   time.Time `json:"date"` // UTC midnight of the calendar date
	TransactionType        string    `json:"transactionType"`
	TransactionDescription string    `json:"transactionDescription"`
	DebitAmount            float64   `json:"debitAmount"`
	CreditAmount           float64   `json:"creditAmount"`
	Balance                float64   `json:"balance"`
	Category               string    `json:"category"`
	LocationCity           string    `json:"locationCity"`
	LocationCountry        string    `json:"locationCountry"`
	Frequency              float64   `json:"frequency"`
	FrequencyUniqueKey     string    `json:"frequencyUniqueKey"`
}

// Year, Month and Day are the calendar components used as index keys.
func (t *Transaction) Year() int  { return t.Date.Year() }
func (t *Transaction) Month() int { return int(t.Date.Month()) }
func (t *Transaction) Day() int   { return t.Date.Day() }

// DayOfYear returns the 1-based ordinal day of the (UTC) date, 1..366.
func (t *Transaction) DayOfYear() int {
	return t.Date.UTC().YearDay()
}

// MMDD is the hashable month/day key used by the superpositioned calendar, e.g. "3-5".
func (t *Transaction) MMDD() string {
	return fmt.Sprintf("%d-%d", t.Month(), t.Day())
}

// IsCredit reports whether the transaction is a credit.
// A record with both amounts zero is a zero debit.
func (t *Transaction) IsCredit() (bool, error) {
	switch {
	case t.CreditAmount == 0 && t.DebitAmount >= 0:
		return false, nil
	case t.CreditAmount >= 0 && t.DebitAmount == 0:
		return true, nil
	default:
		return false, fmt.Errorf("%w: transaction %s (debit %v, credit %v)", ErrAmountConflict, t.TransactionNumber, t.DebitAmount, t.CreditAmount)
	}
}

// TransactionAmount is the credit amount for credits and the debit amount otherwise.
func (t *Transaction) TransactionAmount() (float64, error) {
	isCredit, err := t.IsCredit()
	if err != nil {
		return 0, err
	}
	if isCredit {
		return t.CreditAmount, nil
	}
	return t.DebitAmount, nil
}

// TransactionSet is one snapshot of the active transactions.
// Its pointer identity is the "array reference": a new fetch installs a new *TransactionSet
// and every derived structure keyed on the old pointer must be rebuilt.
type TransactionSet struct {
	Transactions []*Transaction
	FetchedAt    time.Time
}

// NewTransactionSet wraps txs in a fresh snapshot.
func NewTransactionSet(txs []*Transaction) *TransactionSet {
	if txs == nil {
		txs = []*Transaction{}
	}
	return &TransactionSet{Transactions: txs, FetchedAt: time.Now()}
}

// Len returns the number of transactions, tolerating a nil set.
func (s *TransactionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transactions)
}
