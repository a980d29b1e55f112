package selection

import (
	"fmt"

	"github.com/username/txlens/backend/src/models"
)

// Resolve returns the transaction numbers highlighted by state. It is pure and
// deterministic: legend selections come back in transaction order, brushes verbatim.
func Resolve(state State, data Data) ([]string, error) {
	switch state.CurrentSelector {
	case SelectorNone:
		return []string{}, nil
	case SelectorCategory:
		return filterTransactions(data.Transactions, state.SelectedCategoryArr, func(t *models.Transaction) string { return t.Category }), nil
	case SelectorFrequencyUniqueKey:
		return filterTransactions(data.Transactions, state.SelectedFrequencyUniqueKeyArr, func(t *models.Transaction) string { return t.FrequencyUniqueKey }), nil
	case SelectorClusterID:
		return resolveClusters(state.SelectedClusterIDArr, data)
	case SelectorScatterPlotBrush:
		return state.ScatterPlotSelectedTransactionNumberArr, nil
	case SelectorClusterViewBrush:
		return state.ClusterViewSelectedTransactionNumberArr, nil
	case SelectorOneTimeTransaction:
		return oneTimeTransactions(data.Transactions), nil
	default:
		return nil, fmt.Errorf("%w: selector %d", ErrUnreachable, int(state.CurrentSelector))
	}
}

func filterTransactions(txs []*models.Transaction, selected []string, key func(*models.Transaction) string) []string {
	wanted := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		wanted[v] = struct{}{}
	}
	out := []string{}
	for _, t := range txs {
		if _, ok := wanted[key(t)]; ok {
			out = append(out, t.TransactionNumber)
		}
	}
	return out
}

func resolveClusters(selected []string, data Data) ([]string, error) {
	clusters := data.clusterMap()
	wanted := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		wanted[v] = struct{}{}
	}
	out := []string{}
	for _, t := range data.Transactions {
		clusterID, ok := clusters[t.TransactionNumber]
		if !ok {
			return nil, fmt.Errorf("%w: transaction number %s has no cluster assignment", ErrConsistency, t.TransactionNumber)
		}
		if _, ok := wanted[clusterID]; ok {
			out = append(out, t.TransactionNumber)
		}
	}
	return out, nil
}

// oneTimeTransactions returns the transactions whose frequency key occurs exactly once.
func oneTimeTransactions(txs []*models.Transaction) []string {
	counts := make(map[string]int)
	for _, t := range txs {
		counts[t.FrequencyUniqueKey]++
	}
	out := []string{}
	for _, t := range txs {
		if counts[t.FrequencyUniqueKey] == 1 {
			out = append(out, t.TransactionNumber)
		}
	}
	return out
}

// LegendActiveValues lists the values a legend draws as active: the selection when
// the legend owns one, otherwise the whole domain.
func LegendActiveValues(state State, data Data, channel ColourChannel) ([]string, error) {
	var (
		selected []string
		domain   []string
	)
	switch channel {
	case ColourCategory:
		selected, domain = state.SelectedCategoryArr, data.CategoryDomain()
	case ColourCluster:
		selected, domain = state.SelectedClusterIDArr, data.ClusterIDDomain()
	case ColourFrequencyUniqueKey:
		selected, domain = state.SelectedFrequencyUniqueKeyArr, data.FrequencyUniqueKeyDomain()
	default:
		return nil, fmt.Errorf("%w: colour channel %q", ErrUnreachable, channel)
	}
	if len(selected) == 0 {
		return domain, nil
	}
	return selected, nil
}

// HighlightedDayBorders returns the "m-d" keys of the calendar cells that hold at least one
// highlighted transaction. Outside superposition only currentYear counts.
func HighlightedDayBorders(txs []*models.Transaction, highlighted map[string]struct{}, superpositioned bool, currentYear int) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range txs {
		if _, ok := highlighted[t.TransactionNumber]; !ok {
			continue
		}
		if superpositioned || t.Year() == currentYear {
			out[t.MMDD()] = struct{}{}
		}
	}
	return out
}
