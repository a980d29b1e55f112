package views

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/selection"
)

// GlyphOptions sizes the per-day glyphs.
type GlyphOptions struct {
	MaxRadius float64 // pie / polar-area glyph, scaled by transaction count
	MaxHeight float64 // bar glyph, scaled by amount
	LogHeight bool
	LogRadius bool // polar-area category radii on a log scale
}

func DefaultGlyphOptions() GlyphOptions {
	return GlyphOptions{MaxRadius: 12, MaxHeight: 24, LogHeight: true}
}

type CalendarDay struct {
	DayRef
	Key              string             `json:"key"`
	TransactionCount int                `json:"transactionCount"`
	AmountSum        float64            `json:"amountSum"`
	Radius           float64            `json:"radius"`
	Height           float64            `json:"height"`
	Highlighted      bool               `json:"highlighted"`
	HighlightedCount int                `json:"highlightedCount"`
	ClusterSums      map[string]float64 `json:"clusterSums,omitempty"`
	CategorySums     []CategorySum      `json:"categorySums,omitempty"`
}

// CategorySum is one wedge of a polar-area glyph. A day lists every category of the
// calendar in CategoryOrder, with a zero sum for the ones it does not contain.
type CategorySum struct {
	Category string  `json:"category"`
	Sum      float64 `json:"sum"`
	Radius   float64 `json:"radius"`
}

type CalendarView struct {
	GlyphType           GlyphType           `json:"glyphType"`
	Year                int                 `json:"year"`
	Superpositioned     bool                `json:"superpositioned"`
	Years               []int               `json:"years"`
	Ready               bool                `json:"ready"`
	MaxTransactionCount int                 `json:"maxTransactionCount"`
	AmountExtent        *aggregation.Extent `json:"amountExtent,omitempty"`
	ClusterAmountExtent *aggregation.Extent `json:"clusterAmountExtent,omitempty"`
	// Polar-area glyphs only.
	CategoryOrder        []string            `json:"categoryOrder,omitempty"`
	CategoryAmountExtent *aggregation.Extent `json:"categoryAmountExtent,omitempty"`
	CategoryRadiusDomain *aggregation.Extent `json:"categoryRadiusDomain,omitempty"`
	Days                []CalendarDay       `json:"days"`
}

// BuildCalendar lays out the glyph data for the current year, or for all years folded
// onto one year when the calendar is superpositioned. An empty set gives a view that is
// not ready rather than an error.
func BuildCalendar(s *Snapshot, opts GlyphOptions) (*CalendarView, error) {
	glyph, err := ParseGlyphType(string(s.Calendar.GlyphType))
	if err != nil {
		return nil, err
	}
	view := &CalendarView{
		GlyphType:       glyph,
		Year:            s.Calendar.CurrentYear,
		Superpositioned: s.Calendar.Superpositioned,
		Years:           []int{},
		Days:            []CalendarDay{},
	}
	if !s.Ready() || s.Aggregates == nil {
		return view, nil
	}

	view.Years = s.Index.Years()
	if view.Year == 0 {
		view.Year = view.Years[len(view.Years)-1]
	}
	mode := aggregation.ModeFor(view.Superpositioned)

	view.MaxTransactionCount = s.Aggregates.MaxTransactionCount(mode)
	extent, ok := s.Aggregates.AmountExtentPerDay(mode)
	if !ok {
		return view, nil
	}
	view.AmountExtent = &extent
	view.Ready = true

	scales := dayScales{
		count: aggregation.NewLinearScale(aggregation.Extent{Min: 0, Max: float64(view.MaxTransactionCount)}, 0, opts.MaxRadius),
	}
	if scales.height, err = amountScale(s.Aggregates, mode, opts); err != nil {
		return nil, err
	}
	if glyph == GlyphPolarArea {
		if err := s.polarAreaScales(view, &scales, mode, opts); err != nil {
			return nil, err
		}
	}

	clustered := len(s.ClusterMap) > 0
	if clustered {
		ce, ok, err := aggregation.ClusterAmountExtentPerDay(s.Transactions, s.ClusterMap, mode, opts.LogHeight)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConsistency, err)
		}
		if ok {
			view.ClusterAmountExtent = &ce
		}
	}

	borders := selection.HighlightedDayBorders(s.Transactions, s.HighlightedSet, view.Superpositioned, view.Year)

	var buildErr error
	addDay := func(g index.DayGroup) {
		if buildErr != nil {
			return
		}
		day, err := s.calendarDay(g, scales, borders, clustered)
		if err != nil {
			buildErr = err
			return
		}
		view.Days = append(view.Days, day)
	}
	if view.Superpositioned {
		s.Index.ForEachMonthDay(addDay)
	} else {
		s.Index.ForEachDay(func(g index.DayGroup) {
			if g.Year == view.Year {
				addDay(g)
			}
		})
	}
	if buildErr != nil {
		return nil, buildErr
	}

	slices.SortFunc(view.Days, func(a, b CalendarDay) int {
		if c := cmp.Compare(a.Month, b.Month); c != 0 {
			return c
		}
		return cmp.Compare(a.Day, b.Day)
	})
	return view, nil
}

func amountScale(agg *aggregation.Cache, mode aggregation.Mode, opts GlyphOptions) (aggregation.Scale, error) {
	if opts.LogHeight {
		ext, _ := agg.LogAmountExtentPerDay(mode)
		return aggregation.NewLogScale(ext, 0, opts.MaxHeight)
	}
	ext, _ := agg.AmountExtentPerDay(mode)
	return aggregation.NewLinearScale(aggregation.Extent{Min: min(0, ext.Min), Max: ext.Max}, 0, opts.MaxHeight), nil
}

// dayScales are shared by every cell of one calendar.
type dayScales struct {
	count, height aggregation.Scale
	// categoryRadius is nil unless polar-area glyphs are drawn.
	categoryRadius aggregation.Scale
	categoryOrder  []string
	categoryIndex  map[string]int
}

// polarAreaScales fixes the category order and the radius scale shared by all polar-area
// glyphs: its domain reaches the largest amount any category sums to on one day.
func (s *Snapshot) polarAreaScales(view *CalendarView, scales *dayScales, mode aggregation.Mode, opts GlyphOptions) error {
	order := s.SelectionData().CategoryDomain()
	scales.categoryOrder = order
	scales.categoryIndex = make(map[string]int, len(order))
	for i, c := range order {
		scales.categoryIndex[c] = i
	}
	view.CategoryOrder = order

	ext, ok, err := aggregation.CategoryAmountExtentPerDay(s.Transactions, mode, false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConsistency, err)
	}
	if !ok {
		return nil
	}
	domain := aggregation.RadiusDomain(ext.Max, opts.LogRadius)
	view.CategoryAmountExtent = &ext
	view.CategoryRadiusDomain = &domain
	if opts.LogRadius {
		logScale, err := aggregation.NewLogScale(domain, 0, opts.MaxRadius)
		if err != nil {
			return err
		}
		scales.categoryRadius = logScale
		return nil
	}
	scales.categoryRadius = aggregation.NewLinearScale(domain, 0, opts.MaxRadius)
	return nil
}

func (s *Snapshot) calendarDay(g index.DayGroup, sc dayScales, borders map[string]struct{}, clustered bool) (CalendarDay, error) {
	key := fmt.Sprintf("%d-%d", g.Month, g.Day)
	day := CalendarDay{
		DayRef:           DayRef{Year: g.Year, Month: g.Month, Day: g.Day},
		Key:              key,
		TransactionCount: len(g.Transactions),
		AmountSum:        g.AmountSum,
		Radius:           sc.count.Map(float64(len(g.Transactions))),
		Height:           sc.height.Map(g.AmountSum),
	}
	_, day.Highlighted = borders[key]

	if clustered {
		day.ClusterSums = make(map[string]float64)
	}
	polar := sc.categoryRadius != nil
	if polar {
		day.CategorySums = make([]CategorySum, len(sc.categoryOrder))
		for i, c := range sc.categoryOrder {
			day.CategorySums[i].Category = c
		}
	}
	for _, t := range g.Transactions {
		if s.HighlightedSet.Has(t.TransactionNumber) {
			day.HighlightedCount++
		}
		if !clustered && !polar {
			continue
		}
		amount, err := t.TransactionAmount()
		if err != nil {
			return CalendarDay{}, fmt.Errorf("%w: %w", ErrConsistency, err)
		}
		if clustered {
			clusterID, err := s.clusterOf(t)
			if err != nil {
				return CalendarDay{}, err
			}
			day.ClusterSums[clusterID] += amount
		}
		if polar {
			i, ok := sc.categoryIndex[t.Category]
			if !ok {
				return CalendarDay{}, fmt.Errorf("%w: category %q of transaction %s is not in the category order", ErrConsistency, t.Category, t.TransactionNumber)
			}
			day.CategorySums[i].Sum += amount
		}
	}
	for i := range day.CategorySums {
		day.CategorySums[i].Radius = max(0, sc.categoryRadius.Map(day.CategorySums[i].Sum))
	}
	return day, nil
}

type DayDetailView struct {
	DayRef
	Superpositioned bool       `json:"superpositioned"`
	AmountSum       float64    `json:"amountSum"`
	Rows            []TableRow `json:"rows"`
}

// BuildDayDetail lists the transactions of one calendar cell. Out-of-range days and
// months are invalid arguments; a valid day without data is an empty detail.
func BuildDayDetail(s *Snapshot, ref DayRef, superpositioned bool) (*DayDetailView, error) {
	txs, sum, err := lookupDay(s.indexOrEmpty(), ref, superpositioned)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(txs)
	if err != nil {
		return nil, err
	}
	if superpositioned {
		ref.Year = 0
	}
	return &DayDetailView{DayRef: ref, Superpositioned: superpositioned, AmountSum: sum, Rows: rows}, nil
}

func lookupDay(ix *index.TemporalIndex, ref DayRef, superpositioned bool) ([]*models.Transaction, float64, error) {
	var (
		txs []*models.Transaction
		sum float64
		err error
	)
	if superpositioned {
		txs, err = ix.LookupByMonthDay(ref.Day, ref.Month)
		if err == nil {
			sum, err = ix.LookupAmountSumByMonthDay(ref.Day, ref.Month)
		}
	} else {
		txs, err = ix.LookupByDate(ref.Day, ref.Month, ref.Year)
		if err == nil {
			sum, err = ix.LookupAmountSum(ref.Day, ref.Month, ref.Year)
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return txs, sum, nil
}

// indexOrEmpty returns the snapshot's index, or an empty one before the first fetch.
func (s *Snapshot) indexOrEmpty() *index.TemporalIndex {
	if s.Index != nil {
		return s.Index
	}
	ix, _ := index.Build(nil)
	return ix
}
