package processors

import (
	"cmp"
	"fmt"
	"sort"
	"strconv"

	"github.com/username/txlens/backend/src/models"
)

// ClusterProcessor converts the kmean response object into cluster assignments.
type ClusterProcessor struct{}

func NewClusterProcessor() *ClusterProcessor { return &ClusterProcessor{} }

// Process returns one assignment per key, ordered by transaction number.
func (p *ClusterProcessor) Process(byNumber map[string]models.ClusterServerData) ([]models.ClusterAssignment, error) {
	out := make([]models.ClusterAssignment, 0, len(byNumber))
	for number, v := range byNumber {
		if v.Cluster == "" {
			return nil, fmt.Errorf("%w: transaction %s has no cluster", ErrInvalidRecord, number)
		}
		out = append(out, models.ClusterAssignment{TransactionNumber: number, ClusterID: string(v.Cluster)})
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareNumericStrings(out[i].TransactionNumber, out[j].TransactionNumber) < 0
	})
	return out, nil
}

// CompareNumericStrings orders integer strings numerically and anything else lexically.
// Integers sort before non-integers.
func CompareNumericStrings(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
