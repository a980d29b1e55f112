package views

import (
	"fmt"

	"github.com/username/txlens/backend/src/aggregation"
	"github.com/username/txlens/backend/src/models"
	"github.com/username/txlens/backend/src/selection"
)

// AxisLabel is a plottable transaction attribute.
type AxisLabel string

const (
	AxisTransactionAmount AxisLabel = "transactionAmount"
	AxisDayOfYear         AxisLabel = "dayOfYear"
	AxisBalance           AxisLabel = "balance"
	AxisFrequency         AxisLabel = "frequency"
)

func ParseAxisLabel(s string) (AxisLabel, error) {
	switch a := AxisLabel(s); a {
	case AxisTransactionAmount, AxisDayOfYear, AxisBalance, AxisFrequency:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown axis label %q", ErrInvalidArgument, s)
	}
}

func axisValue(t *models.Transaction, label AxisLabel) (float64, error) {
	switch label {
	case AxisTransactionAmount:
		v, err := t.TransactionAmount()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrConsistency, err)
		}
		return v, nil
	case AxisDayOfYear:
		return float64(t.DayOfYear()), nil
	case AxisBalance:
		return t.Balance, nil
	case AxisFrequency:
		return t.Frequency, nil
	default:
		return 0, fmt.Errorf("%w: axis label %q", ErrUnreachable, label)
	}
}

// ScatterView is column-oriented: entry i of every slice describes the same transaction.
type ScatterView struct {
	X                  AxisLabel               `json:"x"`
	Y                  AxisLabel               `json:"y"`
	ColourChannel      selection.ColourChannel `json:"colourChannel"`
	Ready              bool                    `json:"ready"`
	XExtent            aggregation.Extent      `json:"xExtent"`
	YExtent            aggregation.Extent      `json:"yExtent"`
	TransactionNumbers []string                `json:"transactionNumbers"`
	Xs                 []float64               `json:"xs"`
	Ys                 []float64               `json:"ys"`
	Colours            []string                `json:"colours"`
	Highlighted        []bool                  `json:"highlighted"`
}

// BuildScatter plots every transaction on x/y, coloured by channel.
func BuildScatter(s *Snapshot, x, y AxisLabel, channel selection.ColourChannel) (*ScatterView, error) {
	n := len(s.Transactions)
	view := &ScatterView{
		X:                  x,
		Y:                  y,
		ColourChannel:      channel,
		TransactionNumbers: make([]string, 0, n),
		Xs:                 make([]float64, 0, n),
		Ys:                 make([]float64, 0, n),
		Colours:            make([]string, 0, n),
		Highlighted:        make([]bool, 0, n),
	}
	for _, t := range s.Transactions {
		xv, err := axisValue(t, x)
		if err != nil {
			return nil, err
		}
		yv, err := axisValue(t, y)
		if err != nil {
			return nil, err
		}
		colour, err := s.colourValue(t, channel)
		if err != nil {
			return nil, err
		}
		view.TransactionNumbers = append(view.TransactionNumbers, t.TransactionNumber)
		view.Xs = append(view.Xs, xv)
		view.Ys = append(view.Ys, yv)
		view.Colours = append(view.Colours, colour)
		view.Highlighted = append(view.Highlighted, s.HighlightedSet.Has(t.TransactionNumber))
	}
	if err := view.checkColumns(); err != nil {
		return nil, err
	}
	view.XExtent, view.Ready = extentOf(view.Xs)
	view.YExtent, _ = extentOf(view.Ys)
	return view, nil
}

// BuildClusterView is the scatter plot of the cluster view, coloured by its own channel.
func BuildClusterView(s *Snapshot, x, y AxisLabel) (*ScatterView, error) {
	return BuildScatter(s, x, y, s.Colours.ClusterView)
}

func (v *ScatterView) checkColumns() error {
	n := len(v.TransactionNumbers)
	if len(v.Xs) != n || len(v.Ys) != n || len(v.Colours) != n || len(v.Highlighted) != n {
		return fmt.Errorf("%w: scatter columns have lengths %d/%d/%d/%d/%d", ErrConsistency,
			n, len(v.Xs), len(v.Ys), len(v.Colours), len(v.Highlighted))
	}
	return nil
}

func extentOf(vs []float64) (aggregation.Extent, bool) {
	if len(vs) == 0 {
		return aggregation.Extent{}, false
	}
	e := aggregation.Extent{Min: vs[0], Max: vs[0]}
	for _, v := range vs[1:] {
		e.Min = min(e.Min, v)
		e.Max = max(e.Max, v)
	}
	return e, true
}
