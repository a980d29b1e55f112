package views

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/memo"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/selection"
)

func fixtureTransactions() []*models.Transaction {
	mk := func(number string, y, m, d int, debit, credit float64, category, key, desc string) *models.Transaction {
		return &models.Transaction{
			TransactionNumber:      number,
			Date:                   time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC),
			DebitAmount:            debit,
			CreditAmount:           credit,
			Category:               category,
			FrequencyUniqueKey:     key,
			TransactionDescription: desc,
			Balance:                100,
			Frequency:              1,
		}
	}
	return []*models.Transaction{
		mk("1", 2016, 3, 5, 10, 0, "A", "k1", "TESCO"),
		mk("2", 2016, 3, 5, 20, 0, "B", "k2", "SHELL"),
		mk("9", 2017, 3, 5, 0, 5, "B", "k2", "SALARY"),
		mk("10", 2016, 1, 2, 1, 0, "C", "k3", "TESCO EXPRESS"),
	}
}

func buildSnapshot(t *testing.T, txs []*models.Transaction, clusters []models.ClusterAssignment, state selection.State) *Snapshot {
	t.Helper()
	ix, err := index.Build(txs)
	require.NoError(t, err)
	hl, err := selection.Resolve(state, selection.Data{Transactions: txs, Clusters: clusters})
	require.NoError(t, err)
	return &Snapshot{
		Transactions:   txs,
		Index:          ix,
		Aggregates:     aggregation.New(ix),
		Clusters:       clusters,
		ClusterMap:     models.NewClusterMap(clusters),
		Selection:      state,
		Highlighted:    hl,
		HighlightedSet: memo.NewSet(hl),
		Colours:        DefaultColourState(),
	}
}

func categoryState(t *testing.T, txs []*models.Transaction, categories ...string) selection.State {
	t.Helper()
	state := selection.InitialState()
	for _, c := range categories {
		var err error
		state, err = selection.Reduce(state, selection.ToggleCategory{Category: c}, selection.Data{Transactions: txs})
		require.NoError(t, err)
	}
	return state
}

func TestBuildCalendar_YearBound(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, categoryState(t, txs, "A"))
	s.Calendar = CalendarState{CurrentYear: 2016}

	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.True(t, view.Ready)
	assert.Equal(t, []int{2016, 2017}, view.Years)
	assert.Equal(t, 2, view.MaxTransactionCount)
	require.NotNil(t, view.AmountExtent)
	assert.Equal(t, aggregation.Extent{Min: 1, Max: 30}, *view.AmountExtent)

	require.Len(t, view.Days, 2)
	jan, mar := view.Days[0], view.Days[1]
	assert.Equal(t, "1-2", jan.Key)
	assert.False(t, jan.Highlighted)
	assert.InDelta(t, 6, jan.Radius, 1e-9)

	assert.Equal(t, "3-5", mar.Key)
	assert.Equal(t, 2, mar.TransactionCount)
	assert.Equal(t, 30.0, mar.AmountSum)
	assert.True(t, mar.Highlighted)
	assert.Equal(t, 1, mar.HighlightedCount)
	assert.InDelta(t, 12, mar.Radius, 1e-9)
	assert.InDelta(t, 24, mar.Height, 1e-9)
	assert.Nil(t, mar.ClusterSums)
}

func TestBuildCalendar_Superpositioned(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, selection.InitialState())
	s.Calendar = CalendarState{CurrentYear: 2016, Superpositioned: true}

	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, view.MaxTransactionCount)
	require.Len(t, view.Days, 2)
	assert.Equal(t, 3, view.Days[1].TransactionCount)
	assert.Equal(t, 35.0, view.Days[1].AmountSum)
	assert.Zero(t, view.Days[1].Year)
}

func TestBuildCalendar_DefaultsToLatestYear(t *testing.T) {
	s := buildSnapshot(t, fixtureTransactions(), nil, selection.InitialState())
	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.Equal(t, 2017, view.Year)
	require.Len(t, view.Days, 1)
}

func TestBuildCalendar_EmptyIsNotReady(t *testing.T) {
	s := buildSnapshot(t, []*models.Transaction{}, nil, selection.InitialState())
	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.False(t, view.Ready)
	assert.Empty(t, view.Days)
	assert.Nil(t, view.AmountExtent)

	view, err = BuildCalendar(&Snapshot{}, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.False(t, view.Ready)
}

func TestBuildCalendar_ClusterSums(t *testing.T) {
	txs := fixtureTransactions()
	clusters := []models.ClusterAssignment{
		{TransactionNumber: "1", ClusterID: "0"},
		{TransactionNumber: "2", ClusterID: "1"},
		{TransactionNumber: "9", ClusterID: "1"},
		{TransactionNumber: "10", ClusterID: "0"},
	}
	s := buildSnapshot(t, txs, clusters, selection.InitialState())
	s.Calendar = CalendarState{CurrentYear: 2016}

	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	require.NotNil(t, view.ClusterAmountExtent)
	assert.Equal(t, map[string]float64{"0": 10, "1": 20}, view.Days[1].ClusterSums)
}

func TestBuildCalendar_PolarAreaCategorySums(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, selection.InitialState())
	s.Calendar = DefaultCalendarState()
	s.Calendar.CurrentYear = 2016

	view, err := BuildCalendar(s, DefaultGlyphOptions())
	require.NoError(t, err)
	assert.Equal(t, GlyphPolarArea, view.GlyphType)
	assert.Equal(t, []string{"A", "B", "C"}, view.CategoryOrder)
	require.NotNil(t, view.CategoryAmountExtent)
	assert.Equal(t, aggregation.Extent{Min: 1, Max: 20}, *view.CategoryAmountExtent)
	require.NotNil(t, view.CategoryRadiusDomain)
	assert.Equal(t, aggregation.Extent{Min: 0, Max: 20}, *view.CategoryRadiusDomain)

	require.Len(t, view.Days, 2)
	jan, mar := view.Days[0], view.Days[1]
	assert.Equal(t, []CategorySum{
		{Category: "A", Sum: 10, Radius: 6},
		{Category: "B", Sum: 20, Radius: 12},
		{Category: "C", Sum: 0, Radius: 0},
	}, mar.CategorySums)
	require.Len(t, jan.CategorySums, 3)
	assert.Equal(t, "C", jan.CategorySums[2].Category)
	assert.InDelta(t, 0.6, jan.CategorySums[2].Radius, 1e-9)
	assert.Zero(t, jan.CategorySums[0].Sum)
}

func TestBuildCalendar_PolarAreaScaleVariants(t *testing.T) {
	txs := fixtureTransactions()

	t.Run("log radius", func(t *testing.T) {
		s := buildSnapshot(t, txs, nil, selection.InitialState())
		s.Calendar = CalendarState{GlyphType: GlyphPolarArea, CurrentYear: 2016}
		opts := DefaultGlyphOptions()
		opts.LogRadius = true

		view, err := BuildCalendar(s, opts)
		require.NoError(t, err)
		require.NotNil(t, view.CategoryRadiusDomain)
		assert.Equal(t, aggregation.Extent{Min: aggregation.LogEpsilon, Max: 20}, *view.CategoryRadiusDomain)
		mar := view.Days[1]
		assert.InDelta(t, 12, mar.CategorySums[1].Radius, 1e-9)
		assert.Zero(t, mar.CategorySums[2].Radius)
		assert.Greater(t, mar.CategorySums[0].Radius, mar.CategorySums[2].Radius)
	})

	t.Run("superpositioned sums fold years", func(t *testing.T) {
		s := buildSnapshot(t, txs, nil, selection.InitialState())
		s.Calendar = CalendarState{GlyphType: GlyphPolarArea, Superpositioned: true}

		view, err := BuildCalendar(s, DefaultGlyphOptions())
		require.NoError(t, err)
		assert.Equal(t, aggregation.Extent{Min: 0, Max: 25}, *view.CategoryRadiusDomain)
		assert.Equal(t, 25.0, view.Days[1].CategorySums[1].Sum)
		assert.InDelta(t, 12, view.Days[1].CategorySums[1].Radius, 1e-9)
	})

	t.Run("other glyphs carry no category data", func(t *testing.T) {
		s := buildSnapshot(t, txs, nil, selection.InitialState())
		s.Calendar = CalendarState{GlyphType: GlyphBar, CurrentYear: 2016}

		view, err := BuildCalendar(s, DefaultGlyphOptions())
		require.NoError(t, err)
		assert.Equal(t, GlyphBar, view.GlyphType)
		assert.Nil(t, view.CategoryOrder)
		assert.Nil(t, view.CategoryRadiusDomain)
		assert.Nil(t, view.Days[1].CategorySums)
	})

	t.Run("unknown glyph", func(t *testing.T) {
		s := buildSnapshot(t, txs, nil, selection.InitialState())
		s.Calendar = CalendarState{GlyphType: "hexagon"}
		_, err := BuildCalendar(s, DefaultGlyphOptions())
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestParseGlyphType(t *testing.T) {
	for _, name := range []string{"bar", "pie", "polarArea", "star"} {
		g, err := ParseGlyphType(name)
		require.NoError(t, err)
		assert.Equal(t, GlyphType(name), g)
	}
	g, err := ParseGlyphType("")
	require.NoError(t, err)
	assert.Equal(t, GlyphPolarArea, g)
}

func TestBuildCalendar_MissingClusterIsConsistencyError(t *testing.T) {
	txs := fixtureTransactions()
	clusters := []models.ClusterAssignment{{TransactionNumber: "1", ClusterID: "0"}}
	s := buildSnapshot(t, txs, clusters, selection.InitialState())

	_, err := BuildCalendar(s, DefaultGlyphOptions())
	assert.ErrorIs(t, err, ErrConsistency)
}

func TestBuildDayDetail(t *testing.T) {
	s := buildSnapshot(t, fixtureTransactions(), nil, selection.InitialState())

	detail, err := BuildDayDetail(s, DayRef{Year: 2016, Month: 3, Day: 5}, false)
	require.NoError(t, err)
	assert.Equal(t, 30.0, detail.AmountSum)
	assert.Len(t, detail.Rows, 2)

	detail, err = BuildDayDetail(s, DayRef{Year: 2016, Month: 3, Day: 5}, true)
	require.NoError(t, err)
	assert.Equal(t, 35.0, detail.AmountSum)
	assert.Len(t, detail.Rows, 3)
	assert.Zero(t, detail.Year)

	empty, err := BuildDayDetail(s, DayRef{Year: 2020, Month: 6, Day: 15}, false)
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
	assert.Zero(t, empty.AmountSum)

	_, err = BuildDayDetail(s, DayRef{Year: 2016, Month: 13, Day: 1}, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, index.ErrInvalidArgument)
}

func TestBuildScatter(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, categoryState(t, txs, "B"))

	view, err := BuildScatter(s, AxisDayOfYear, AxisTransactionAmount, selection.ColourCategory)
	require.NoError(t, err)
	assert.True(t, view.Ready)
	assert.Equal(t, []string{"1", "2", "9", "10"}, view.TransactionNumbers)
	assert.Equal(t, []float64{65, 65, 64, 2}, view.Xs)
	assert.Equal(t, []float64{10, 20, 5, 1}, view.Ys)
	assert.Equal(t, []string{"A", "B", "B", "C"}, view.Colours)
	assert.Equal(t, []bool{false, true, true, false}, view.Highlighted)
	assert.Equal(t, aggregation.Extent{Min: 2, Max: 65}, view.XExtent)
}

func TestBuildScatter_ClusterColourNeedsEveryAssignment(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, []models.ClusterAssignment{{TransactionNumber: "1", ClusterID: "0"}}, selection.InitialState())

	_, err := BuildClusterView(s, AxisDayOfYear, AxisFrequency)
	assert.ErrorIs(t, err, ErrConsistency)
}

func TestScatterColumnsMustAlign(t *testing.T) {
	v := &ScatterView{TransactionNumbers: []string{"1"}, Xs: []float64{1}, Ys: []float64{}, Colours: []string{"A"}, Highlighted: []bool{false}}
	assert.ErrorIs(t, v.checkColumns(), ErrConsistency)
}

func TestParseAxisLabel(t *testing.T) {
	a, err := ParseAxisLabel("balance")
	require.NoError(t, err)
	assert.Equal(t, AxisBalance, a)

	_, err = ParseAxisLabel("weekOfYear")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildTable(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, selection.InitialState())

	view, err := BuildTable(s, TableQuery{Sort: "transactionNumber"})
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, view.Scope)
	assert.Equal(t, selection.ColourCategory, view.ColourChannel)
	assert.Equal(t, []string{"1", "2", "9", "10"}, rowNumbers(view.Rows))
	assert.True(t, decimal.NewFromInt(31).Equal(view.Totals.Debit))
	assert.True(t, decimal.NewFromInt(5).Equal(view.Totals.Credit))
	assert.True(t, decimal.NewFromInt(-26).Equal(view.Totals.Net))

	view, err = BuildTable(s, TableQuery{Sort: "transactionNumber", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "9", "2", "1"}, rowNumbers(view.Rows))

	view, err = BuildTable(s, TableQuery{Sort: "transactionAmount"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "9", "1", "2"}, rowNumbers(view.Rows))

	view, err = BuildTable(s, TableQuery{Search: "tesco"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "10"}, rowNumbers(view.Rows))

	_, err = BuildTable(s, TableQuery{Sort: "colour"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildTable_Scopes(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, categoryState(t, txs, "B"))

	view, err := BuildTable(s, TableQuery{Scope: ScopeHighlighted})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "9"}, rowNumbers(view.Rows))
	for _, r := range view.Rows {
		assert.True(t, r.Highlighted)
	}

	view, err = BuildTable(s, TableQuery{Scope: ScopeDetailDay})
	require.NoError(t, err)
	assert.Empty(t, view.Rows)

	s.Calendar.DetailDay = &DayRef{Year: 2016, Month: 3, Day: 5}
	view, err = BuildTable(s, TableQuery{Scope: ScopeDetailDay})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, rowNumbers(view.Rows))

	_, err = ParseTableScope("week")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBuildLegends(t *testing.T) {
	txs := fixtureTransactions()
	s := buildSnapshot(t, txs, nil, categoryState(t, txs, "C"))

	view, err := BuildLegends(s)
	require.NoError(t, err)
	assert.Equal(t, selection.SelectorCategory, view.CurrentSelector)
	require.Len(t, view.Legends, 3)

	category := view.Legends[0]
	assert.Equal(t, []string{"A", "B", "C"}, category.Domain)
	assert.Equal(t, []string{"C"}, category.Active)
	assert.Equal(t, map[string]int{"A": 1, "B": 2, "C": 1}, category.Counts)

	cluster := view.Legends[1]
	assert.Empty(t, cluster.Domain)
	assert.Empty(t, cluster.Counts)

	frequency := view.Legends[2]
	assert.Equal(t, []string{"k1", "k2", "k3"}, frequency.Active)
}

func rowNumbers(rows []TableRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.TransactionNumber)
	}
	return out
}
