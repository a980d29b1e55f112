package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TransactionServerData is one record as served by the analysis backend.
// Field names differ from Transaction; the processors package maps one onto the other.
type TransactionServerData struct {
	TransactionNumber      FlexString      `json:"transactionNumber"`
	TransactionDate        json.RawMessage `json:"transactionDate"` // "dd/mm/yyyy" or epoch milliseconds
	TransactionType        *string         `json:"transactionType"`
	TransactionDescription *string         `json:"transactionDescription"`
	DebitAmount            *float64        `json:"debitAmount"`
	CreditAmount           *float64        `json:"creditAmount"`
	Balance                *float64        `json:"balance"`
	Category               *string         `json:"category"`
	LocationCity           *string         `json:"locationCity"`
	LocationCountry        *string         `json:"locationCountry"`
	Frequency              *float64        `json:"frequency"`
	FrequencyUniqueKey     FlexString      `json:"frequencyUniqueKey"`
}

// ClusterServerData is the value side of the kmean response object.
type ClusterServerData struct {
	Cluster FlexString `json:"cluster"`
}

// FlexString accepts a JSON string, number or null and keeps it as a string.
// The backend emits transaction numbers and keys as either, depending on the grouping.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	// Whole floats such as 12.0 come back from pandas for integer columns.
	if fv, err := n.Float64(); err == nil && fv == float64(int64(fv)) {
		*f = FlexString(strconv.FormatInt(int64(fv), 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}
