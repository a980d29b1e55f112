package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for values outside the colour domain or unknown tags.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConsistency is returned when the data needed to resolve a selection disagree,
	// e.g. a transaction without a cluster assignment.
	ErrConsistency = errors.New("consistency violation")
	// ErrUnreachable is returned from a switch over a closed set that met an unknown member.
	ErrUnreachable = errors.New("unreachable")
)

// Selector tags the source that currently owns the highlighted set.
type Selector int

const (
	SelectorNone Selector = iota
	SelectorCategory
	SelectorClusterID
	SelectorFrequencyUniqueKey
	SelectorScatterPlotBrush
	SelectorClusterViewBrush
	SelectorOneTimeTransaction
)

var selectorNames = map[Selector]string{
	SelectorNone:               "none",
	SelectorCategory:           "category",
	SelectorClusterID:          "clusterId",
	SelectorFrequencyUniqueKey: "frequencyUniqueKey",
	SelectorScatterPlotBrush:   "scatterPlotBrush",
	SelectorClusterViewBrush:   "clusterViewBrush",
	SelectorOneTimeTransaction: "oneTimeTransaction",
}

func (s Selector) String() string {
	if name, ok := selectorNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Selector(%d)", int(s))
}

// Valid reports whether s is one of the declared tags.
func (s Selector) Valid() bool {
	_, ok := selectorNames[s]
	return ok
}

// ParseSelector is the inverse of String.
func ParseSelector(name string) (Selector, error) {
	for sel, n := range selectorNames {
		if n == name {
			return sel, nil
		}
	}
	return SelectorNone, fmt.Errorf("%w: unknown selector %q", ErrInvalidArgument, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Selector) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: selector %d", ErrUnreachable, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Selector) UnmarshalText(text []byte) error {
	sel, err := ParseSelector(string(text))
	if err != nil {
		return err
	}
	*s = sel
	return nil
}

// ColourChannel is the attribute a colour scale encodes.
type ColourChannel string

const (
	ColourCategory           ColourChannel = "category"
	ColourCluster            ColourChannel = "cluster"
	ColourFrequencyUniqueKey ColourChannel = "frequencyUniqueKey"
)

// ParseColourChannel validates a colour channel name.
func ParseColourChannel(name string) (ColourChannel, error) {
	switch c := ColourChannel(name); c {
	case ColourCategory, ColourCluster, ColourFrequencyUniqueKey:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown colour channel %q", ErrInvalidArgument, name)
	}
}

// ColourChannelFor returns the colour channel the table views use for the current selector.
// Brush selectors inherit the colour channel of the view that was brushed.
func ColourChannelFor(sel Selector, scatterPlotColour, clusterViewColour ColourChannel) (ColourChannel, error) {
	switch sel {
	case SelectorNone, SelectorCategory, SelectorOneTimeTransaction:
		return ColourCategory, nil
	case SelectorFrequencyUniqueKey:
		return ColourFrequencyUniqueKey, nil
	case SelectorClusterID:
		return ColourCluster, nil
	case SelectorScatterPlotBrush:
		return scatterPlotColour, nil
	case SelectorClusterViewBrush:
		return clusterViewColour, nil
	default:
		return "", fmt.Errorf("%w: selector %d", ErrUnreachable, int(sel))
	}
}
