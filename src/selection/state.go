// src/selection/state.go
package selection

import (
	"fmt"
	"slices"

	"github.com/username/txlens/backend/src/models"
)

// State is the selection state of one dashboard. At most one of the arrays is non-empty,
// and CurrentSelector names it (or is none / oneTimeTransaction when all are empty).
// A State is a value: Reduce never modifies the slices of the state it receives.
type State struct {
	CurrentSelector                         Selector `json:"currentSelector"`
	SelectedCategoryArr                     []string `json:"selectedCategoryArr"`
	SelectedClusterIDArr                    []string `json:"selectedClusterIdArr"`
	SelectedFrequencyUniqueKeyArr           []string `json:"selectedFrequencyUniqueKeyArr"`
	ScatterPlotSelectedTransactionNumberArr []string `json:"scatterPlotSelectedTransactionNumberArr"`
	ClusterViewSelectedTransactionNumberArr []string `json:"clusterViewSelectedTransactionNumberArr"`
}

// InitialState highlights one-time transactions.
func InitialState() State {
	return State{CurrentSelector: SelectorOneTimeTransaction}.normalized()
}

// normalized replaces nil arrays with empty ones so the JSON form is stable.
func (s State) normalized() State {
	if s.SelectedCategoryArr == nil {
		s.SelectedCategoryArr = []string{}
	}
	if s.SelectedClusterIDArr == nil {
		s.SelectedClusterIDArr = []string{}
	}
	if s.SelectedFrequencyUniqueKeyArr == nil {
		s.SelectedFrequencyUniqueKeyArr = []string{}
	}
	if s.ScatterPlotSelectedTransactionNumberArr == nil {
		s.ScatterPlotSelectedTransactionNumberArr = []string{}
	}
	if s.ClusterViewSelectedTransactionNumberArr == nil {
		s.ClusterViewSelectedTransactionNumberArr = []string{}
	}
	return s
}

// only returns a state owned by sel whose sole non-empty array is arr.
func only(sel Selector, arr []string) State {
	s := State{CurrentSelector: sel}
	switch sel {
	case SelectorCategory:
		s.SelectedCategoryArr = arr
	case SelectorClusterID:
		s.SelectedClusterIDArr = arr
	case SelectorFrequencyUniqueKey:
		s.SelectedFrequencyUniqueKeyArr = arr
	case SelectorScatterPlotBrush:
		s.ScatterPlotSelectedTransactionNumberArr = arr
	case SelectorClusterViewBrush:
		s.ClusterViewSelectedTransactionNumberArr = arr
	}
	return s.normalized()
}

// arrayOf returns the array owned by sel, nil for tags without one.
func (s State) arrayOf(sel Selector) []string {
	switch sel {
	case SelectorCategory:
		return s.SelectedCategoryArr
	case SelectorClusterID:
		return s.SelectedClusterIDArr
	case SelectorFrequencyUniqueKey:
		return s.SelectedFrequencyUniqueKeyArr
	case SelectorScatterPlotBrush:
		return s.ScatterPlotSelectedTransactionNumberArr
	case SelectorClusterViewBrush:
		return s.ClusterViewSelectedTransactionNumberArr
	default:
		return nil
	}
}

// ActiveArray is the array owned by the current selector.
func (s State) ActiveArray() []string { return s.arrayOf(s.CurrentSelector) }

// Data is everything selection needs to know about the loaded data.
type Data struct {
	Transactions []*models.Transaction
	Clusters     []models.ClusterAssignment
	// ClusterMap may be left nil; it is then derived from Clusters.
	ClusterMap models.ClusterMap
}

func (d Data) clusterMap() models.ClusterMap {
	if d.ClusterMap != nil {
		return d.ClusterMap
	}
	return models.NewClusterMap(d.Clusters)
}

// CategoryDomain lists the distinct categories in first-seen order.
func (d Data) CategoryDomain() []string {
	return distinct(d.Transactions, func(t *models.Transaction) string { return t.Category })
}

// FrequencyUniqueKeyDomain lists the distinct frequency keys in first-seen order.
func (d Data) FrequencyUniqueKeyDomain() []string {
	return distinct(d.Transactions, func(t *models.Transaction) string { return t.FrequencyUniqueKey })
}

// ClusterIDDomain lists the distinct cluster ids in first-seen order.
func (d Data) ClusterIDDomain() []string {
	return distinct(d.Clusters, func(c models.ClusterAssignment) string { return c.ClusterID })
}

func distinct[T any](items []T, key func(T) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Reduce applies action to state and returns the next state. It is pure: the
// input state is not modified and the result shares no slice with the action.
func Reduce(state State, action Action, data Data) (State, error) {
	switch a := action.(type) {
	case ToggleCategory:
		return toggle(state, SelectorCategory, a.Category, data.CategoryDomain())
	case ToggleClusterID:
		return toggle(state, SelectorClusterID, a.ClusterID, data.ClusterIDDomain())
	case ToggleFrequencyUniqueKey:
		return toggle(state, SelectorFrequencyUniqueKey, a.Key, data.FrequencyUniqueKeyDomain())
	case SetScatterPlotBrush:
		return brush(SelectorScatterPlotBrush, a.TransactionNumbers), nil
	case SetClusterViewBrush:
		return brush(SelectorClusterViewBrush, a.TransactionNumbers), nil
	case SetExplicitSelector:
		if !a.Selector.Valid() {
			return state, fmt.Errorf("%w: selector %d", ErrInvalidArgument, int(a.Selector))
		}
		return only(a.Selector, slices.Clone(state.arrayOf(a.Selector))), nil
	case ToggleOneTimeTransaction:
		if state.CurrentSelector == SelectorOneTimeTransaction {
			return only(SelectorNone, nil), nil
		}
		return only(SelectorOneTimeTransaction, nil), nil
	case ClearSelection:
		return only(SelectorNone, nil), nil
	case ClustersReplaced:
		if state.CurrentSelector == SelectorClusterID {
			return only(SelectorNone, nil), nil
		}
		next := state
		next.SelectedClusterIDArr = []string{}
		return next.normalized(), nil
	case nil:
		return state, fmt.Errorf("%w: nil action", ErrInvalidArgument)
	default:
		return state, fmt.Errorf("%w: unknown action %T", ErrUnreachable, action)
	}
}

// toggle flips value in the array owned by sel. Selecting the last unselected value of
// the domain means "everything", which is shown as no selection at all.
func toggle(state State, sel Selector, value string, domain []string) (State, error) {
	if !slices.Contains(domain, value) {
		return state, fmt.Errorf("%w: %s %q is not in the colour domain", ErrInvalidArgument, sel, value)
	}

	// Switching sources starts from an empty array.
	var current []string
	if state.CurrentSelector == sel {
		current = state.arrayOf(sel)
	}

	if i := slices.Index(current, value); i >= 0 {
		next := slices.Delete(slices.Clone(current), i, i+1)
		if len(next) == 0 {
			return only(SelectorNone, nil), nil
		}
		return only(sel, next), nil
	}

	next := append(slices.Clone(current), value)
	if coversDomain(next, domain) {
		return only(SelectorNone, nil), nil
	}
	return only(sel, next), nil
}

func coversDomain(selected, domain []string) bool {
	if len(selected) < len(domain) {
		return false
	}
	for _, v := range domain {
		if !slices.Contains(selected, v) {
			return false
		}
	}
	return true
}

func brush(sel Selector, transactionNumbers []string) State {
	if len(transactionNumbers) == 0 {
		return only(SelectorNone, nil)
	}
	return only(sel, slices.Clone(transactionNumbers))
}
