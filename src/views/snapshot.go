// Package views turns an engine snapshot into the view models served to the dashboard:
// calendar glyph data, scatter and cluster plots, colour legends and detail tables.
package views

import (
	"errors"
	"fmt"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/index"
	"github.com/username/txlens/backend/src/memo"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/selection"
)

var (
	ErrInvalidArgument = errors.New("invalid view argument")
	ErrConsistency     = errors.New("view data inconsistent")
	ErrUnreachable     = errors.New("unreachable")
)

// DayRef names a calendar cell. Year is zero for a superpositioned cell.
type DayRef struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// GlyphType is the shape drawn in each calendar cell.
type GlyphType string

const (
	GlyphBar       GlyphType = "bar"
	GlyphPie       GlyphType = "pie"
	GlyphPolarArea GlyphType = "polarArea"
	GlyphStar      GlyphType = "star"
)

// ParseGlyphType validates a glyph name. An empty name is the polar-area default.
func ParseGlyphType(s string) (GlyphType, error) {
	switch g := GlyphType(s); g {
	case "":
		return GlyphPolarArea, nil
	case GlyphBar, GlyphPie, GlyphPolarArea, GlyphStar:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown glyph type %q", ErrInvalidArgument, s)
	}
}

// CalendarState is the calendar's own UI state.
type CalendarState struct {
	GlyphType       GlyphType `json:"glyphType"`
	CurrentYear     int       `json:"currentYear"`
	Superpositioned bool      `json:"superpositioned"`
	DetailDay       *DayRef   `json:"detailDay,omitempty"`
}

// DefaultCalendarState is the calendar of a new session: polar-area glyphs for the latest year.
func DefaultCalendarState() CalendarState {
	return CalendarState{GlyphType: GlyphPolarArea}
}

// ColourState holds the colour channel picked in each plot.
type ColourState struct {
	ScatterPlot selection.ColourChannel `json:"scatterPlot"`
	ClusterView selection.ColourChannel `json:"clusterView"`
}

// DefaultColourState matches the dashboard's initial plot colouring.
func DefaultColourState() ColourState {
	return ColourState{ScatterPlot: selection.ColourCategory, ClusterView: selection.ColourCluster}
}

// Snapshot is a consistent, read-only view of one session. Every field is immutable
// once the snapshot is taken, so views may read it without holding the session lock.
type Snapshot struct {
	Transactions   []*models.Transaction
	Index          *index.TemporalIndex
	Aggregates     *aggregation.Cache
	Clusters       []models.ClusterAssignment
	ClusterMap     models.ClusterMap
	Selection      selection.State
	Highlighted    []string
	HighlightedSet memo.Set[string]
	Calendar       CalendarState
	Colours        ColourState
}

// Ready reports whether there is anything to draw.
func (s *Snapshot) Ready() bool {
	return s != nil && s.Index != nil && s.Index.Len() > 0
}

// SelectionData is the selection engine's view of the snapshot.
func (s *Snapshot) SelectionData() selection.Data {
	return selection.Data{Transactions: s.Transactions, Clusters: s.Clusters, ClusterMap: s.ClusterMap}
}

// clusterOf returns the cluster of a transaction, failing on a miss.
func (s *Snapshot) clusterOf(t *models.Transaction) (string, error) {
	id, ok := s.ClusterMap[t.TransactionNumber]
	if !ok {
		return "", fmt.Errorf("%w: transaction number %s does not exist in the cluster map", ErrConsistency, t.TransactionNumber)
	}
	return id, nil
}

// colourValue is the legend value of t on channel.
func (s *Snapshot) colourValue(t *models.Transaction, channel selection.ColourChannel) (string, error) {
	switch channel {
	case selection.ColourCategory:
		return t.Category, nil
	case selection.ColourFrequencyUniqueKey:
		return t.FrequencyUniqueKey, nil
	case selection.ColourCluster:
		return s.clusterOf(t)
	default:
		return "", fmt.Errorf("%w: colour channel %q", ErrUnreachable, channel)
	}
}
