package selection

import "fmt"

// Action is one interaction that changes the selection. The set of actions is closed.
type Action interface {
	isAction()
}

// ToggleCategory adds or removes a category from the category legend selection.
type ToggleCategory struct{ Category string }

// ToggleClusterID adds or removes a cluster from the cluster legend selection.
type ToggleClusterID struct{ ClusterID string }

// ToggleFrequencyUniqueKey adds or removes a frequency group from its legend selection.
type ToggleFrequencyUniqueKey struct{ Key string }

// SetScatterPlotBrush replaces the scatter plot brush selection.
type SetScatterPlotBrush struct{ TransactionNumbers []string }

// SetClusterViewBrush replaces the cluster view brush selection.
type SetClusterViewBrush struct{ TransactionNumbers []string }

// SetExplicitSelector hands ownership to Selector without selecting anything yet (brush start).
type SetExplicitSelector struct{ Selector Selector }

// ToggleOneTimeTransaction switches between the one-time-transaction view and no selection.
type ToggleOneTimeTransaction struct{}

// ClearSelection drops every selection.
type ClearSelection struct{}

// ClustersReplaced is dispatched when new cluster assignments arrive; old cluster ids mean nothing.
type ClustersReplaced struct{}

func (ToggleCategory) isAction()           {}
func (ToggleClusterID) isAction()          {}
func (ToggleFrequencyUniqueKey) isAction() {}
func (SetScatterPlotBrush) isAction()      {}
func (SetClusterViewBrush) isAction()      {}
func (SetExplicitSelector) isAction()      {}
func (ToggleOneTimeTransaction) isAction() {}
func (ClearSelection) isAction()           {}
func (ClustersReplaced) isAction()         {}

// ActionRequest is the wire form of an Action.
type ActionRequest struct {
	Type   string   `json:"type"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// ParseAction turns a wire request into an Action.
func ParseAction(req ActionRequest) (Action, error) {
	switch req.Type {
	case "toggleCategory":
		return ToggleCategory{Category: req.Value}, nil
	case "toggleClusterId":
		return ToggleClusterID{ClusterID: req.Value}, nil
	case "toggleFrequencyUniqueKey":
		return ToggleFrequencyUniqueKey{Key: req.Value}, nil
	case "setScatterPlotBrush":
		return SetScatterPlotBrush{TransactionNumbers: req.Values}, nil
	case "setClusterViewBrush":
		return SetClusterViewBrush{TransactionNumbers: req.Values}, nil
	case "setExplicitSelector":
		sel, err := ParseSelector(req.Value)
		if err != nil {
			return nil, err
		}
		return SetExplicitSelector{Selector: sel}, nil
	case "toggleOneTimeTransaction":
		return ToggleOneTimeTransaction{}, nil
	case "clearSelection":
		return ClearSelection{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidArgument, req.Type)
	}
}
