// src/processors/transaction_processor.go
package processors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/security/validation"
)

// ErrInvalidRecord is returned for a server record that cannot become a Transaction.
var ErrInvalidRecord = errors.New("invalid transaction record")

// Layouts accepted for string dates. The backend serialises dd/mm/yyyy; ISO dates show up
// when the frame went through a datetime column.
var dateLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02", time.RFC3339}

// TransactionProcessor turns backend records into normalised, immutable transactions.
type TransactionProcessor struct{}

func NewTransactionProcessor() *TransactionProcessor { return &TransactionProcessor{} }

// Process normalises every record. The first bad record fails the whole batch, so a
// session never installs a partially converted set.
func (p *TransactionProcessor) Process(records []models.TransactionServerData) ([]*models.Transaction, error) {
	txs := make([]*models.Transaction, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		tx, err := p.normalize(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[tx.TransactionNumber]; dup {
			logger.L.Warn("Duplicate transaction number in backend data", "transactionNumber", tx.TransactionNumber)
		}
		seen[tx.TransactionNumber] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (p *TransactionProcessor) normalize(rec models.TransactionServerData) (*models.Transaction, error) {
	number := strings.TrimSpace(string(rec.TransactionNumber))
	if number == "" {
		return nil, fmt.Errorf("%w: missing transactionNumber", ErrInvalidRecord)
	}
	date, err := ParseTransactionDate(rec.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction %s: %v", ErrInvalidRecord, number, err)
	}

	tx := &models.Transaction{
		TransactionNumber:      number,
		Date:                   date,
		TransactionType:        deref(rec.TransactionType),
		TransactionDescription: validation.CleanDescription(deref(rec.TransactionDescription)),
		DebitAmount:            derefFloat(rec.DebitAmount),
		CreditAmount:           derefFloat(rec.CreditAmount),
		Balance:                derefFloat(rec.Balance),
		Category:               deref(rec.Category),
		LocationCity:           deref(rec.LocationCity),
		LocationCountry:        deref(rec.LocationCountry),
		Frequency:              derefFloat(rec.Frequency),
		FrequencyUniqueKey:     string(rec.FrequencyUniqueKey),
	}
	if _, err := tx.IsCredit(); err != nil {
		return nil, err
	}
	return tx, nil
}

// ParseTransactionDate accepts a date string or epoch milliseconds and returns UTC midnight.
func ParseTransactionDate(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errors.New("missing transactionDate")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return midnightUTC(t), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised transactionDate %q", s)
	}

	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("transactionDate must be a string or epoch milliseconds, got %s", string(raw))
	}
	f, err := ms.Float64()
	if err != nil {
		return time.Time{}, err
	}
	return midnightUTC(time.UnixMilli(int64(f))), nil
}

func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
