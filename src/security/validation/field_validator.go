// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/username/txlens/backend/src/logger"
	"github.com/username/txlens/backend/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxSearchTermLength      = 255
	MinNumberOfCluster       = 1
	MaxNumberOfCluster       = 50
	MinNumberOfClusterString = 1
	MaxNumberOfClusterString = 2000
)

// Closed option sets understood by the analysis backend.
var (
	ClusterMetrics   = []string{"transactionAmount", "category", "frequency"}
	FrequencyPeriods = []string{"month", "day"}
	DistanceMeasures = []string{
		"levenshtein",
		"damerauLevenshtein",
		"hamming",
		"jaroSimilarity",
		"jaroWinklerSimilarity",
		"MatchRatingApproach",
	}
	LinkageMethods = []string{"single", "complete", "average", "weighted", "centroid", "median", "ward"}
	FrequencyKeys  = []models.FrequencyUniqueKeyType{
		models.FrequencyKeyCategory,
		models.FrequencyKeyTransactionDescription,
		models.FrequencyKeyClusteredTransactionDescription,
	}
)

// --- String Validators ---

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateOneOf checks that s is one of the allowed values.
func ValidateOneOf(s string, allowed []string, fieldName string) error {
	if !slices.Contains(allowed, s) {
		return fmt.Errorf("%w: %s ('%s') must be one of %s", ErrValidationFailed, fieldName, s, strings.Join(allowed, ", "))
	}
	return nil
}

// --- Numeric Validators ---

// ValidateIntString parses a string to int and checks if it's within a range.
// An empty string yields fallback.
func ValidateIntString(s, fieldName string, fallback, minVal, maxVal int) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid integer: %v", ErrValidationFailed, fieldName, s, err)
	}
	if err := ValidateIntRange(val, fieldName, minVal, maxVal); err != nil {
		return 0, err
	}
	return val, nil
}

// ValidateIntRange checks minVal <= val <= maxVal.
func ValidateIntRange(val int, fieldName string, minVal, maxVal int) error {
	if val < minVal || val > maxVal {
		logger.L.Warn("Integer value out of range", "field", fieldName, "value", val, "min", minVal, "max", maxVal)
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrValidationFailed, fieldName, minVal, maxVal, val)
	}
	return nil
}

// ValidateBoolString parses "true"/"false"/"1"/"0"; empty yields false.
func ValidateBoolString(s, fieldName string) (bool, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(trimmed)
	if err != nil {
		return false, fmt.Errorf("%w: %s ('%s') is not a valid boolean", ErrValidationFailed, fieldName, s)
	}
	return b, nil
}

// --- Domain Validators ---

// ValidateClusterConfig checks every field of cfg against the backend's option sets.
// String-clustering fields are only checked when the frequency key needs them.
func ValidateClusterConfig(cfg models.ClusterConfig) error {
	if err := ValidateIntRange(cfg.NumberOfCluster, "numberOfCluster", MinNumberOfCluster, MaxNumberOfCluster); err != nil {
		return err
	}
	if err := ValidateOneOf(cfg.Metric1, ClusterMetrics, "metric1"); err != nil {
		return err
	}
	if err := ValidateOneOf(cfg.Metric2, ClusterMetrics, "metric2"); err != nil {
		return err
	}
	return ValidateFrequencyConfig(cfg.Frequency)
}

// ValidateFrequencyConfig checks the frequency regrouping parameters.
func ValidateFrequencyConfig(f models.FrequencyConfig) error {
	if !slices.Contains(FrequencyKeys, f.FrequencyUniqueKey) {
		return fmt.Errorf("%w: frequencyUniqueKey ('%s') is not supported", ErrValidationFailed, f.FrequencyUniqueKey)
	}
	if err := ValidateOneOf(f.Per, FrequencyPeriods, "per"); err != nil {
		return err
	}
	if f.FrequencyUniqueKey != models.FrequencyKeyClusteredTransactionDescription {
		return nil
	}
	if err := ValidateOneOf(f.DistanceMeasure, DistanceMeasures, "distanceMeasure"); err != nil {
		return err
	}
	if err := ValidateOneOf(f.LinkageMethod, LinkageMethods, "linkageMethod"); err != nil {
		return err
	}
	return ValidateIntRange(f.NumberOfClusterForString, "numberOfClusterForString", MinNumberOfClusterString, MaxNumberOfClusterString)
}

// ValidateSearchTerm bounds and cleans a table search term.
func ValidateSearchTerm(s string) (string, error) {
	if err := ValidateStringMaxLength(s, MaxSearchTermLength, "search"); err != nil {
		return "", err
	}
	return CleanDescription(s), nil
}
