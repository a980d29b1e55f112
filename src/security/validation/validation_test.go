package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/txlens/backend/src/models"
)

func validConfig() models.ClusterConfig {
	return models.ClusterConfig{
		NumberOfCluster: 5,
		Metric1:         "transactionAmount",
		Metric2:         "frequency",
		Frequency: models.FrequencyConfig{
			FrequencyUniqueKey:       models.FrequencyKeyClusteredTransactionDescription,
			Per:                      "month",
			DistanceMeasure:          "levenshtein",
			LinkageMethod:            "ward",
			NumberOfClusterForString: 250,
		},
	}
}

func TestValidateClusterConfig(t *testing.T) {
	require.NoError(t, ValidateClusterConfig(validConfig()))

	cases := map[string]func(*models.ClusterConfig){
		"too many clusters":   func(c *models.ClusterConfig) { c.NumberOfCluster = 500 },
		"zero clusters":       func(c *models.ClusterConfig) { c.NumberOfCluster = 0 },
		"unknown metric":      func(c *models.ClusterConfig) { c.Metric1 = "balance" },
		"unknown key":         func(c *models.ClusterConfig) { c.Frequency.FrequencyUniqueKey = "merchant" },
		"unknown period":      func(c *models.ClusterConfig) { c.Frequency.Per = "week" },
		"unknown distance":    func(c *models.ClusterConfig) { c.Frequency.DistanceMeasure = "cosine" },
		"unknown linkage":     func(c *models.ClusterConfig) { c.Frequency.LinkageMethod = "ward2" },
		"string cluster zero": func(c *models.ClusterConfig) { c.Frequency.NumberOfClusterForString = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.ErrorIs(t, ValidateClusterConfig(cfg), ErrValidationFailed)
		})
	}
}

func TestValidateFrequencyConfig_IgnoresStringParamsForPlainKeys(t *testing.T) {
	err := ValidateFrequencyConfig(models.FrequencyConfig{
		FrequencyUniqueKey: models.FrequencyKeyCategory,
		Per:                "day",
	})
	assert.NoError(t, err)
}

func TestValidateIntString(t *testing.T) {
	v, err := ValidateIntString("", "year", 2016, 1900, 2100)
	require.NoError(t, err)
	assert.Equal(t, 2016, v)

	v, err = ValidateIntString(" 2017 ", "year", 0, 1900, 2100)
	require.NoError(t, err)
	assert.Equal(t, 2017, v)

	_, err = ValidateIntString("abc", "year", 0, 1900, 2100)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateIntString("3000", "year", 0, 1900, 2100)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateBoolString(t *testing.T) {
	b, err := ValidateBoolString("", "superpositioned")
	require.NoError(t, err)
	assert.False(t, b)

	b, err = ValidateBoolString("true", "superpositioned")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = ValidateBoolString("maybe", "superpositioned")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "TESCO STORES", CleanDescription("  <b>TESCO</b> STORES\x00 "))
	assert.Equal(t, "M&S", CleanDescription("M&S"))
}

func TestValidateSearchTerm(t *testing.T) {
	term, err := ValidateSearchTerm("<i>tesco</i>")
	require.NoError(t, err)
	assert.Equal(t, "tesco", term)

	long := make([]byte, MaxSearchTermLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = ValidateSearchTerm(string(long))
	assert.ErrorIs(t, err, ErrValidationFailed)
}
