package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/processors"
	"github.com/username/txlens/backend/src/selection"
)

// TableRow is one transaction as shown in the detail tables.
type TableRow struct {
	TransactionNumber      string  `json:"transactionNumber"`
	Date                   string  `json:"date"`
	TransactionType        string  `json:"transactionType"`
	TransactionDescription string  `json:"transactionDescription"`
	DebitAmount            float64 `json:"debitAmount"`
	CreditAmount           float64 `json:"creditAmount"`
	TransactionAmount      float64 `json:"transactionAmount"`
	IsCredit               bool    `json:"isCredit"`
	Balance                float64 `json:"balance"`
	Category               string  `json:"category"`
	LocationCity           string  `json:"locationCity"`
	LocationCountry        string  `json:"locationCountry"`
	Frequency              float64 `json:"frequency"`
	FrequencyUniqueKey     string  `json:"frequencyUniqueKey"`
	ClusterID              string  `json:"clusterId,omitempty"`
	Highlighted            bool    `json:"highlighted"`

	tx *models.Transaction
}

// TableScope picks which transactions a table lists.
type TableScope string

const (
	ScopeAll         TableScope = "all"
	ScopeHighlighted TableScope = "highlighted"
	ScopeDetailDay   TableScope = "detailDay"
)

func ParseTableScope(s string) (TableScope, error) {
	switch sc := TableScope(s); sc {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeHighlighted, ScopeDetailDay:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: unknown table scope %q", ErrInvalidArgument, s)
	}
}

type TableQuery struct {
	Sort   string
	Desc   bool
	Search string
	Scope  TableScope
}

// Totals are summed in decimal so the footer shows exact cents.
type Totals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Net    decimal.Decimal `json:"net"`
}

type TableView struct {
	Scope         TableScope              `json:"scope"`
	ColourChannel selection.ColourChannel `json:"colourChannel"`
	Count         int                     `json:"count"`
	Totals        Totals                  `json:"totals"`
	Rows          []TableRow              `json:"rows"`
}

// BuildTable lists, filters and sorts transactions for the detail table.
func BuildTable(s *Snapshot, q TableQuery) (*TableView, error) {
	colour, err := selection.ColourChannelFor(s.Selection.CurrentSelector, s.Colours.ScatterPlot, s.Colours.ClusterView)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	less, err := rowComparator(q.Sort)
	if err != nil {
		return nil, err
	}

	txs, err := s.scopedTransactions(q.Scope)
	if err != nil {
		return nil, err
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		txs = slices.DeleteFunc(slices.Clone(txs), func(t *models.Transaction) bool {
			return !strings.Contains(strings.ToLower(t.TransactionDescription), needle)
		})
	}

	rows, err := s.rows(txs)
	if err != nil {
		return nil, err
	}
	if less != nil {
		slices.SortStableFunc(rows, func(a, b TableRow) int {
			if q.Desc {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	scope := q.Scope
	if scope == "" {
		scope = ScopeAll
	}
	return &TableView{
		Scope:         scope,
		ColourChannel: colour,
		Count:         len(rows),
		Totals:        totals(rows),
		Rows:          rows,
	}, nil
}

func (s *Snapshot) scopedTransactions(scope TableScope) ([]*models.Transaction, error) {
	switch scope {
	case "", ScopeAll:
		return s.Transactions, nil
	case ScopeHighlighted:
		out := make([]*models.Transaction, 0, len(s.HighlightedSet))
		for _, t := range s.Transactions {
			if s.HighlightedSet.Has(t.TransactionNumber) {
				out = append(out, t)
			}
		}
		return out, nil
	case ScopeDetailDay:
		if s.Calendar.DetailDay == nil {
			return []*models.Transaction{}, nil
		}
		txs, _, err := lookupDay(s.indexOrEmpty(), *s.Calendar.DetailDay, s.Calendar.Superpositioned)
		return txs, err
	default:
		return nil, fmt.Errorf("%w: table scope %q", ErrUnreachable, scope)
	}
}

func (s *Snapshot) rows(txs []*models.Transaction) ([]TableRow, error) {
	rows := make([]TableRow, 0, len(txs))
	for _, t := range txs {
		isCredit, err := t.IsCredit()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsistency, err)
		}
		amount, _ := t.TransactionAmount()
		row := TableRow{
			TransactionNumber:      t.TransactionNumber,
			Date:                   t.Date.Format("2006-01-02"),
			TransactionType:        t.TransactionType,
			TransactionDescription: t.TransactionDescription,
			DebitAmount:            t.DebitAmount,
			CreditAmount:           t.CreditAmount,
			TransactionAmount:      amount,
			IsCredit:               isCredit,
			Balance:                t.Balance,
			Category:               t.Category,
			LocationCity:           t.LocationCity,
			LocationCountry:        t.LocationCountry,
			Frequency:              t.Frequency,
			FrequencyUniqueKey:     t.FrequencyUniqueKey,
			Highlighted:            s.HighlightedSet.Has(t.TransactionNumber),
			tx:                     t,
		}
		if len(s.ClusterMap) > 0 {
			if row.ClusterID, err = s.clusterOf(t); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowComparator returns the ordering for a sortable column, or nil to keep source order.
// Transaction numbers and frequency keys are usually integers in disguise and sort as such.
func rowComparator(column string) (func(a, b TableRow) int, error) {
	switch column {
	case "":
		return nil, nil
	case "transactionNumber":
		return func(a, b TableRow) int { return processors.CompareNumericStrings(a.TransactionNumber, b.TransactionNumber) }, nil
	case "frequencyUniqueKey":
		return func(a, b TableRow) int { return processors.CompareNumericStrings(a.FrequencyUniqueKey, b.FrequencyUniqueKey) }, nil
	case "date":
		return func(a, b TableRow) int { return a.tx.Date.Compare(b.tx.Date) }, nil
	case "debitAmount":
		return func(a, b TableRow) int { return cmp.Compare(a.DebitAmount, b.DebitAmount) }, nil
	case "creditAmount":
		return func(a, b TableRow) int { return cmp.Compare(a.CreditAmount, b.CreditAmount) }, nil
	case "transactionAmount":
		return func(a, b TableRow) int { return cmp.Compare(a.TransactionAmount, b.TransactionAmount) }, nil
	case "balance":
		return func(a, b TableRow) int { return cmp.Compare(a.Balance, b.Balance) }, nil
	case "frequency":
		return func(a, b TableRow) int { return cmp.Compare(a.Frequency, b.Frequency) }, nil
	case "transactionType":
		return func(a, b TableRow) int { return cmp.Compare(a.TransactionType, b.TransactionType) }, nil
	case "transactionDescription":
		return func(a, b TableRow) int { return cmp.Compare(a.TransactionDescription, b.TransactionDescription) }, nil
	case "category":
		return func(a, b TableRow) int { return cmp.Compare(a.Category, b.Category) }, nil
	case "locationCity":
		return func(a, b TableRow) int { return cmp.Compare(a.LocationCity, b.LocationCity) }, nil
	case "locationCountry":
		return func(a, b TableRow) int { return cmp.Compare(a.LocationCountry, b.LocationCountry) }, nil
	case "clusterId":
		return func(a, b TableRow) int { return processors.CompareNumericStrings(a.ClusterID, b.ClusterID) }, nil
	default:
		return nil, fmt.Errorf("%w: column %q is not sortable", ErrInvalidArgument, column)
	}
}

func totals(rows []TableRow) Totals {
	debit, credit := decimal.Zero, decimal.Zero
	for _, r := range rows {
		debit = debit.Add(decimal.NewFromFloat(r.DebitAmount))
		credit = credit.Add(decimal.NewFromFloat(r.CreditAmount))
	}
	debit, credit = debit.Round(2), credit.Round(2)
	return Totals{Debit: debit, Credit: credit, Net: credit.Sub(debit)}
}
