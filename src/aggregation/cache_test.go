package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/models"
)

func tx(number string, y, m, d int, debit, credit float64) *models.Transaction {
	return &models.Transaction{
		TransactionNumber: number,
		Date:              time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC),
		DebitAmount:       debit,
		CreditAmount:      credit,
	}
}

func buildCache(t *testing.T, txs []*models.Transaction) *Cache {
	t.Helper()
	ix, err := index.Build(txs)
	require.NoError(t, err)
	return New(ix)
}

func TestCache_Counts(t *testing.T) {
	c := buildCache(t, []*models.Transaction{
		tx("1", 2016, 3, 5, 10, 0),
		tx("2", 2016, 3, 5, 0, 20),
		tx("3", 2017, 3, 5, 5, 0),
		tx("4", 2016, 4, 1, 1, 0),
	})

	assert.Equal(t, 2, c.MaxTransactionCountPerDay())
	assert.Equal(t, 3, c.MaxTransactionCountPerDaySuperpositioned())
	assert.Equal(t, 3, c.MaxTransactionCount(Superpositioned))
	assert.Equal(t, 2, c.MaxTransactionCount(YearBound))
}

func TestCache_AmountExtent(t *testing.T) {
	c := buildCache(t, []*models.Transaction{
		tx("1", 2016, 3, 5, 10, 0),
		tx("2", 2016, 3, 5, 0, 20),
		tx("3", 2017, 3, 5, 5, 0),
		tx("4", 2016, 4, 1, 1, 0),
	})

	e, ok := c.AmountExtentPerDay(YearBound)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 1, Max: 30}, e)

	e, ok = c.AmountExtentPerDay(Superpositioned)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 1, Max: 35}, e)
}

func TestCache_EmptyIsNotReady(t *testing.T) {
	c := buildCache(t, nil)

	_, ok := c.AmountExtentPerDay(YearBound)
	assert.False(t, ok)
	_, ok = c.LogAmountExtentPerDay(Superpositioned)
	assert.False(t, ok)
	assert.Zero(t, c.MaxTransactionCountPerDay())
}

func TestCache_LogExtentFallback(t *testing.T) {
	t.Run("smallest positive replaces zero minimum", func(t *testing.T) {
		c := buildCache(t, []*models.Transaction{
			tx("1", 2016, 1, 1, 0, 0),
			tx("2", 2016, 1, 2, 4, 0),
			tx("3", 2016, 1, 3, 9, 0),
		})
		e, ok := c.AmountExtentPerDay(YearBound)
		require.True(t, ok)
		assert.Equal(t, 0.0, e.Min)

		logE, ok := c.LogAmountExtentPerDay(YearBound)
		require.True(t, ok)
		assert.Equal(t, Extent{Min: 4, Max: 9}, logE)
	})

	t.Run("epsilon when nothing is positive", func(t *testing.T) {
		c := buildCache(t, []*models.Transaction{
			tx("1", 2016, 1, 1, 0, 0),
		})
		logE, ok := c.LogAmountExtentPerDay(YearBound)
		require.True(t, ok)
		assert.Equal(t, LogEpsilon, logE.Min)
		assert.Equal(t, LogEpsilon, logE.Max)

		_, err := NewLogScale(logE, 0, 10)
		assert.NoError(t, err)
	})
}

func TestClusterAmountExtentPerDay(t *testing.T) {
	txs := []*models.Transaction{
		tx("1", 2016, 3, 5, 10, 0),
		tx("2", 2016, 3, 5, 0, 20),
		tx("3", 2017, 3, 5, 5, 0),
	}
	clusters := models.ClusterMap{"1": "a", "2": "a", "3": "b"}

	e, ok, err := ClusterAmountExtentPerDay(txs, clusters, YearBound, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 5, Max: 30}, e)

	clusters["3"] = "a"
	e, ok, err = ClusterAmountExtentPerDay(txs, clusters, Superpositioned, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 35, Max: 35}, e)

	delete(clusters, "2")
	_, _, err = ClusterAmountExtentPerDay(txs, clusters, YearBound, true)
	assert.ErrorIs(t, err, ErrConsistency)
}

func TestCategoryAmountExtentPerDay(t *testing.T) {
	withCategory := func(tr *models.Transaction, c string) *models.Transaction {
		tr.Category = c
		return tr
	}
	txs := []*models.Transaction{
		withCategory(tx("1", 2016, 3, 5, 10, 0), "Groceries"),
		withCategory(tx("2", 2016, 3, 5, 15, 0), "Groceries"),
		withCategory(tx("3", 2016, 3, 5, 4, 0), "Rent"),
		withCategory(tx("4", 2017, 3, 5, 6, 0), "Rent"),
	}

	e, ok, err := CategoryAmountExtentPerDay(txs, YearBound, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 4, Max: 25}, e)

	e, ok, err = CategoryAmountExtentPerDay(txs, Superpositioned, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Extent{Min: 10, Max: 25}, e)

	_, ok, err = CategoryAmountExtentPerDay(nil, YearBound, true)
	require.NoError(t, err)
	assert.False(t, ok)

	conflict := withCategory(tx("5", 2016, 1, 1, 1, 1), "Rent")
	_, _, err = CategoryAmountExtentPerDay([]*models.Transaction{conflict}, YearBound, false)
	assert.ErrorIs(t, err, models.ErrAmountConflict)
}

func TestRadiusDomain(t *testing.T) {
	assert.Equal(t, Extent{Min: 0, Max: 25}, RadiusDomain(25, false))
	assert.Equal(t, Extent{Min: LogEpsilon, Max: 25}, RadiusDomain(25, true))
	assert.Equal(t, Extent{Min: LogEpsilon, Max: LogEpsilon}, RadiusDomain(0, true))

	_, err := NewLogScale(RadiusDomain(25, true), 0, 12)
	assert.NoError(t, err)
}

func TestScales(t *testing.T) {
	lin := NewLinearScale(Extent{Min: 0, Max: 10}, 0, 100)
	assert.InDelta(t, 50, lin.Map(5), 1e-9)
	assert.Equal(t, 100.0, NewLinearScale(Extent{Min: 3, Max: 3}, 0, 100).Map(3))

	_, err := NewLogScale(Extent{Min: 0, Max: 10}, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	logScale, err := NewLogScale(Extent{Min: 1, Max: 100}, 0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, logScale.Map(10), 1e-9)
	assert.Equal(t, 0.0, logScale.Map(-1))
	assert.False(t, math.IsNaN(logScale.Map(1e-9)))
}
