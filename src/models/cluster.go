package models

// ClusterAssignment maps one transaction to the cluster the backend put it in.
type ClusterAssignment struct {
	TransactionNumber string `json:"transactionNumber"`
	ClusterID         string `json:"clusterId"`
}

// ClusterMap is transactionNumber -> clusterId.
type ClusterMap map[string]string

// NewClusterMap indexes assignments by transaction number.
func NewClusterMap(assignments []ClusterAssignment) ClusterMap {
	m := make(ClusterMap, len(assignments))
	for _, a := range assignments {
		m[a.TransactionNumber] = a.ClusterID
	}
	return m
}

// FrequencyUniqueKeyType selects how the backend groups "the same" transaction.
type FrequencyUniqueKeyType string

const (
	FrequencyKeyCategory                        FrequencyUniqueKeyType = "category"
	FrequencyKeyTransactionDescription          FrequencyUniqueKeyType = "transactionDescription"
	FrequencyKeyClusteredTransactionDescription FrequencyUniqueKeyType = "clusteredTransactionDescription"
)

// FrequencyConfig carries the frequency regrouping parameters sent to the backend.
// The string-clustering fields are only meaningful for FrequencyKeyClusteredTransactionDescription.
type FrequencyConfig struct {
	FrequencyUniqueKey       FrequencyUniqueKeyType `json:"frequencyUniqueKey"`
	Per                      string                 `json:"per"` // "month" or "day"
	DistanceMeasure          string                 `json:"distanceMeasure,omitempty"`
	LinkageMethod            string                 `json:"linkageMethod,omitempty"`
	NumberOfClusterForString int                    `json:"numberOfClusterForString,omitempty"`
}

// ClusterConfig is the full set of parameters that drive the backend fetches of a session.
type ClusterConfig struct {
	NumberOfCluster int             `json:"numberOfCluster"`
	Metric1         string          `json:"metric1"`
	Metric2         string          `json:"metric2"`
	Frequency       FrequencyConfig `json:"frequency"`
}
