// src/aggregation/cache.go
package aggregation

import (
	"errors"
	"fmt"
	"math"

	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/models"
)

// LogEpsilon replaces a non-positive log-domain minimum when no positive value was observed.
const LogEpsilon = 0.00001

var (
	// ErrConsistency marks data that cannot be aggregated without misaligning views.
	ErrConsistency = errors.New("consistency violation")
	// ErrInvalidArgument is returned for scale domains a scale cannot represent.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Mode selects the grouping scheme of per-day aggregates.
type Mode int

const (
	// YearBound groups by (year, month, day).
	YearBound Mode = iota
	// Superpositioned groups by (month, day) across years.
	Superpositioned
)

func (m Mode) String() string {
	switch m {
	case YearBound:
		return "yearBound"
	case Superpositioned:
		return "superpositioned"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ModeFor maps the calendar superposition flag to a Mode.
func ModeFor(superpositioned bool) Mode {
	if superpositioned {
		return Superpositioned
	}
	return YearBound
}

// Extent is a closed [Min, Max] interval.
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type amountStats struct {
	extent      Extent
	minPositive float64
	hasPositive bool
	ok          bool
}

func (s *amountStats) observe(v float64) {
	if !s.ok {
		s.extent = Extent{Min: v, Max: v}
		s.ok = true
	} else {
		s.extent.Min = math.Min(s.extent.Min, v)
		s.extent.Max = math.Max(s.extent.Max, v)
	}
	if v > 0 && (!s.hasPositive || v < s.minPositive) {
		s.minPositive = v
		s.hasPositive = true
	}
}

func (s *amountStats) logExtent() (Extent, bool) {
	if !s.ok {
		return Extent{}, false
	}
	e := s.extent
	if e.Min <= 0 {
		if s.hasPositive {
			e.Min = s.minPositive
		} else {
			e.Min = LogEpsilon
		}
	}
	if e.Max < e.Min {
		e.Max = e.Min
	}
	return e, true
}

// Cache holds the scale-domain statistics derived from one TemporalIndex.
// Both grouping modes are computed up front, so switching the superposition flag
// never rescans; a new index means a new Cache.
type Cache struct {
	ix *index.TemporalIndex

	maxCount     int
	maxCountMD   int
	amountByMode [2]amountStats
}

// New derives the statistics of ix.
func New(ix *index.TemporalIndex) *Cache {
	c := &Cache{ix: ix}
	ix.ForEachDay(func(g index.DayGroup) {
		if n := len(g.Transactions); n > c.maxCount {
			c.maxCount = n
		}
		c.amountByMode[YearBound].observe(g.AmountSum)
	})
	ix.ForEachMonthDay(func(g index.DayGroup) {
		if n := len(g.Transactions); n > c.maxCountMD {
			c.maxCountMD = n
		}
		c.amountByMode[Superpositioned].observe(g.AmountSum)
	})
	return c
}

// Index returns the index the cache was derived from.
func (c *Cache) Index() *index.TemporalIndex { return c.ix }

// MaxTransactionCountPerDay is the size of the largest (year, month, day) group, 0 when empty.
func (c *Cache) MaxTransactionCountPerDay() int { return c.maxCount }

// MaxTransactionCountPerDaySuperpositioned is the size of the largest (month, day) group.
func (c *Cache) MaxTransactionCountPerDaySuperpositioned() int { return c.maxCountMD }

// MaxTransactionCount picks the per-day maximum matching mode.
func (c *Cache) MaxTransactionCount(mode Mode) int {
	if mode == Superpositioned {
		return c.maxCountMD
	}
	return c.maxCount
}

// AmountExtentPerDay returns the min and max per-day amount sum.
// ok is false when there are no transactions: callers treat that as "not ready", not as a fault.
func (c *Cache) AmountExtentPerDay(mode Mode) (Extent, bool) {
	s := c.amountByMode[modeSlot(mode)]
	return s.extent, s.ok
}

// LogAmountExtentPerDay is AmountExtentPerDay made safe for a log scale: a non-positive
// minimum becomes the smallest positive per-day sum, or LogEpsilon if there is none.
func (c *Cache) LogAmountExtentPerDay(mode Mode) (Extent, bool) {
	s := c.amountByMode[modeSlot(mode)]
	return s.logExtent()
}

func modeSlot(mode Mode) Mode {
	if mode == Superpositioned {
		return Superpositioned
	}
	return YearBound
}

// ClusterAmountExtentPerDay returns the extent of the amount summed per day and cluster,
// used by star glyphs. Every transaction must have a cluster; a miss is ErrConsistency.
// The extent is already log-safe in its Min when logSafe is true.
func ClusterAmountExtentPerDay(txs []*models.Transaction, clusters models.ClusterMap, mode Mode, logSafe bool) (Extent, bool, error) {
	return groupAmountExtentPerDay(txs, mode, logSafe, func(tx *models.Transaction) (string, error) {
		clusterID, ok := clusters[tx.TransactionNumber]
		if !ok {
			return "", fmt.Errorf("%w: transaction number %s does not exist in the cluster map", ErrConsistency, tx.TransactionNumber)
		}
		return clusterID, nil
	})
}

// CategoryAmountExtentPerDay returns the extent of the amount summed per day and category,
// the shared domain of the polar-area glyphs.
func CategoryAmountExtentPerDay(txs []*models.Transaction, mode Mode, logSafe bool) (Extent, bool, error) {
	return groupAmountExtentPerDay(txs, mode, logSafe, func(tx *models.Transaction) (string, error) {
		return tx.Category, nil
	})
}

// RadiusDomain is the domain of a glyph radius scale reaching maxSum. Radii grow from
// zero, so a linear domain starts at 0 and a log domain at LogEpsilon.
func RadiusDomain(maxSum float64, logScale bool) Extent {
	lo := 0.0
	if logScale {
		lo = LogEpsilon
	}
	return Extent{Min: lo, Max: math.Max(maxSum, lo)}
}

func groupAmountExtentPerDay(txs []*models.Transaction, mode Mode, logSafe bool, groupOf func(*models.Transaction) (string, error)) (Extent, bool, error) {
	type key struct {
		year, month, day int
		group            string
	}
	sums := make(map[key]float64)
	for _, tx := range txs {
		group, err := groupOf(tx)
		if err != nil {
			return Extent{}, false, err
		}
		amount, err := tx.TransactionAmount()
		if err != nil {
			return Extent{}, false, err
		}
		k := key{month: tx.Month(), day: tx.Day(), group: group}
		if mode != Superpositioned {
			k.year = tx.Year()
		}
		sums[k] += amount
	}

	var stats amountStats
	for _, v := range sums {
		stats.observe(v)
	}
	if logSafe {
		e, ok := stats.logExtent()
		return e, ok, nil
	}
	return stats.extent, stats.ok, nil
}
