package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthSim/internal/domain/models"
)

func writeSeries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func drain(t *testing.T, src *SeriesFile) []models.Observation {
	t.Helper()
	obs, errs := src.Read(context.Background())
	var out []models.Observation
	for o := range obs {
		out = append(out, o)
	}
	require.NoError(t, <-errs)
	return out
}

func TestSeriesFileRead(t *testing.T) {
	path := writeSeries(t, `# daily closes
737203 AAPL 118.64

737203 GE 10.04
737204 AAPL 119.05
`)
	src := NewSeriesFile(path, nil)
	out := drain(t, src)

	require.Len(t, out, 3)
	assert.Equal(t, models.Observation{Interval: "737203", Symbol: "AAPL", Value: 118.64}, out[0])
	assert.Equal(t, models.Observation{Interval: "737203", Symbol: "GE", Value: 10.04}, out[1])
	assert.Equal(t, models.Observation{Interval: "737204", Symbol: "AAPL", Value: 119.05}, out[2])
	assert.Zero(t, src.Skipped())
}

func TestSeriesFileRejectsMalformedRecords(t *testing.T) {
	path := writeSeries(t, `737203 AAPL 118.64
737203 AAPL
737203 AAPL 118.64 extra
737203 GE abc
737203 GE -4
737203 GE 0
737204 AAPL 119.05
`)
	src := NewSeriesFile(path, nil)
	out := drain(t, src)

	require.Len(t, out, 2)
	assert.Equal(t, 5, src.Skipped())
}

func TestSeriesFileMissing(t *testing.T) {
	src := NewSeriesFile(filepath.Join(t.TempDir(), "absent.txt"), nil)
	obs, errs := src.Read(context.Background())
	for range obs {
	}
	assert.Error(t, <-errs)
}
