package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(write(t, `
simulation:
  series_file: testdata/series.txt
`))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "avgrms", c.Simulation.Method)
	assert.Equal(t, "equal", c.Simulation.Policy)
	assert.Equal(t, 1000.0, c.Simulation.InitialCapital)
	assert.Equal(t, 10, c.Simulation.MaxHoldings)
	assert.Equal(t, "growthsim.snapshots", c.Kafka.Topic)
	assert.Equal(t, time.Minute, c.Cache.TTL)
}

func TestLoadRejectsMissingSeriesFile(t *testing.T) {
	_, err := Load(write(t, `
environment: production
`))
	assert.Error(t, err)
}

func TestLoadRejectsClickHouseSourceWhenDisabled(t *testing.T) {
	_, err := Load(write(t, `
simulation:
  source: clickhouse
`))
	assert.Error(t, err)
}

func TestLoadAllowsClickHouseSourceWithoutSeriesFile(t *testing.T) {
	c, err := Load(write(t, `
simulation:
  source: clickhouse
clickhouse:
  enabled: true
`))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", c.Simulation.Source)
}

func TestLoadRejectsUnknownMethod(t *testing.T) {
	_, err := Load(write(t, `
simulation:
  series_file: testdata/series.txt
  method: martingale
`))
	assert.Error(t, err)
}

func TestLoadRejectsInvertedHoldingBounds(t *testing.T) {
	_, err := Load(write(t, `
simulation:
  series_file: testdata/series.txt
  min_holdings: 5
  max_holdings: 2
`))
	assert.Error(t, err)
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	_, err := Load(write(t, `
simulation:
  series_file: testdata/series.txt
kafka:
  enabled: true
`))
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SERIES_FILE", "/data/closes.txt")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("INITIAL_CAPITAL", "2500")

	c, err := LoadWithEnv(write(t, `
simulation:
  series_file: testdata/series.txt
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/closes.txt", c.Simulation.SeriesFile)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, 2500.0, c.Simulation.InitialCapital)
}
