package views

import (
	"github.com/username/txlens/backend/src/selection"
)

type Legend struct {
	Channel selection.ColourChannel `json:"channel"`
	Domain  []string                `json:"domain"`
	Active  []string                `json:"active"`
	Counts  map[string]int          `json:"counts"`
}

type LegendsView struct {
	CurrentSelector selection.Selector `json:"currentSelector"`
	Legends         []Legend           `json:"legends"`
}

var legendChannels = []selection.ColourChannel{
	selection.ColourCategory,
	selection.ColourCluster,
	selection.ColourFrequencyUniqueKey,
}

// BuildLegends returns the three colour legends. A legend with no selection of its own
// shows its whole domain as active.
func BuildLegends(s *Snapshot) (*LegendsView, error) {
	data := s.SelectionData()
	view := &LegendsView{CurrentSelector: s.Selection.CurrentSelector, Legends: make([]Legend, 0, len(legendChannels))}
	for _, ch := range legendChannels {
		var domain []string
		switch ch {
		case selection.ColourCategory:
			domain = data.CategoryDomain()
		case selection.ColourCluster:
			domain = data.ClusterIDDomain()
		case selection.ColourFrequencyUniqueKey:
			domain = data.FrequencyUniqueKeyDomain()
		}
		active, err := selection.LegendActiveValues(s.Selection, data, ch)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int, len(domain))
		if ch != selection.ColourCluster || len(s.ClusterMap) > 0 {
			for _, t := range s.Transactions {
				v, err := s.colourValue(t, ch)
				if err != nil {
					return nil, err
				}
				counts[v]++
			}
		}
		view.Legends = append(view.Legends, Legend{Channel: ch, Domain: domain, Active: active, Counts: counts})
	}
	return view, nil
}
