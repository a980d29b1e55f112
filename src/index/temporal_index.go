// src/index/temporal_index.go
package index

import (
	"errors"
	"fmt"
	"sort"

	"github.com/username/txlens/backend/src/models"
)

// ErrInvalidArgument is wrapped by every lookup that receives a day or month outside its range.
var ErrInvalidArgument = errors.New("invalid argument")

// ByMonthDay is month(1-12) -> day(1-31) -> transactions on that month/day across all years.
type ByMonthDay map[int]map[int][]*models.Transaction

// ByYearMonthDay is year -> month(1-12) -> day(1-31) -> transactions on that exact date.
type ByYearMonthDay map[int]ByMonthDay

// AmountSumByMonthDay holds the summed transaction amount per month/day.
type AmountSumByMonthDay map[int]map[int]float64

// AmountSumByYearMonthDay holds the summed transaction amount per date.
type AmountSumByYearMonthDay map[int]AmountSumByMonthDay

// TemporalIndex groups a transaction slice by date so that per-day lists and sums are
// answered without scanning. It is immutable once built and shared by reference; the
// slices returned by lookups belong to the index and must not be modified.
type TemporalIndex struct {
	source []*models.Transaction

	byYMD    ByYearMonthDay
	byMD     ByMonthDay
	sumByYMD AmountSumByYearMonthDay
	sumByMD  AmountSumByMonthDay
}

// Build groups txs by (year, month, day) and by (month, day) and pre-sums the amounts of every group.
// Group order follows the order of txs. A transaction with conflicting amounts fails the build.
func Build(txs []*models.Transaction) (*TemporalIndex, error) {
	ix := &TemporalIndex{
		source:   txs,
		byYMD:    make(ByYearMonthDay),
		byMD:     make(ByMonthDay),
		sumByYMD: make(AmountSumByYearMonthDay),
		sumByMD:  make(AmountSumByMonthDay),
	}
	if ix.source == nil {
		ix.source = []*models.Transaction{}
	}

	for _, tx := range txs {
		amount, err := tx.TransactionAmount()
		if err != nil {
			return nil, fmt.Errorf("building temporal index: %w", err)
		}
		y, m, d := tx.Year(), tx.Month(), tx.Day()

		months, ok := ix.byYMD[y]
		if !ok {
			months = make(ByMonthDay)
			ix.byYMD[y] = months
			ix.sumByYMD[y] = make(AmountSumByMonthDay)
		}
		if months[m] == nil {
			months[m] = make(map[int][]*models.Transaction)
			ix.sumByYMD[y][m] = make(map[int]float64)
		}
		months[m][d] = append(months[m][d], tx)
		ix.sumByYMD[y][m][d] += amount

		if ix.byMD[m] == nil {
			ix.byMD[m] = make(map[int][]*models.Transaction)
			ix.sumByMD[m] = make(map[int]float64)
		}
		ix.byMD[m][d] = append(ix.byMD[m][d], tx)
		ix.sumByMD[m][d] += amount
	}
	return ix, nil
}

func validateMonthDay(day, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d is out of range [1,12]", ErrInvalidArgument, month)
	}
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: day %d is out of range [1,31]", ErrInvalidArgument, day)
	}
	return nil
}

// LookupByDate returns the transactions dated day/month/year, or an empty slice when there are none.
func (ix *TemporalIndex) LookupByDate(day, month, year int) ([]*models.Transaction, error) {
	if err := validateMonthDay(day, month); err != nil {
		return nil, err
	}
	if txs := ix.byYMD[year][month][day]; txs != nil {
		return txs, nil
	}
	return []*models.Transaction{}, nil
}

// LookupByMonthDay returns the transactions on day/month of any year in the index.
func (ix *TemporalIndex) LookupByMonthDay(day, month int) ([]*models.Transaction, error) {
	if err := validateMonthDay(day, month); err != nil {
		return nil, err
	}
	if txs := ix.byMD[month][day]; txs != nil {
		return txs, nil
	}
	return []*models.Transaction{}, nil
}

// LookupAmountSum returns the summed amount of day/month/year, 0 when the day is empty.
func (ix *TemporalIndex) LookupAmountSum(day, month, year int) (float64, error) {
	if err := validateMonthDay(day, month); err != nil {
		return 0, err
	}
	return ix.sumByYMD[year][month][day], nil
}

// LookupAmountSumByMonthDay returns the summed amount of day/month across all years.
func (ix *TemporalIndex) LookupAmountSumByMonthDay(day, month int) (float64, error) {
	if err := validateMonthDay(day, month); err != nil {
		return 0, err
	}
	return ix.sumByMD[month][day], nil
}

// Transactions returns the slice the index was built from.
func (ix *TemporalIndex) Transactions() []*models.Transaction { return ix.source }

// Len is the number of indexed transactions.
func (ix *TemporalIndex) Len() int { return len(ix.source) }

// Years lists the years present, ascending.
func (ix *TemporalIndex) Years() []int {
	years := make([]int, 0, len(ix.byYMD))
	for y := range ix.byYMD {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DayGroup is one non-empty (year, month, day) or (month, day) group.
// Year is zero for superpositioned groups.
type DayGroup struct {
	Year, Month, Day int
	Transactions     []*models.Transaction
	AmountSum        float64
}

// ForEachDay calls fn for every non-empty date, in no particular order.
func (ix *TemporalIndex) ForEachDay(fn func(DayGroup)) {
	for y, months := range ix.byYMD {
		for m, days := range months {
			for d, txs := range days {
				fn(DayGroup{Year: y, Month: m, Day: d, Transactions: txs, AmountSum: ix.sumByYMD[y][m][d]})
			}
		}
	}
}

// ForEachMonthDay calls fn for every non-empty month/day across years, in no particular order.
func (ix *TemporalIndex) ForEachMonthDay(fn func(DayGroup)) {
	for m, days := range ix.byMD {
		for d, txs := range days {
			fn(DayGroup{Month: m, Day: d, Transactions: txs, AmountSum: ix.sumByMD[m][d]})
		}
	}
}
