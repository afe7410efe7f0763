package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"GrowthSim/internal/domain/models"
	applogger "GrowthSim/pkg/logger"
)

// SeriesFile streams observations from a whitespace-separated series file:
// one record per line, `interval identifier value`. Blank lines and lines
// starting with '#' are skipped; records with a wrong field count or a
// non-positive value are rejected and counted.
type SeriesFile struct {
	path    string
	l       *applogger.Logger
	skipped atomic.Int64
}

func NewSeriesFile(path string, l *applogger.Logger) *SeriesFile {
	return &SeriesFile{path: path, l: l}
}

func (s *SeriesFile) Read(ctx context.Context) (<-chan models.Observation, <-chan error) {
	obs := make(chan models.Observation, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(obs)
		defer close(errs)

		f, err := os.Open(s.path)
		if err != nil {
			errs <- fmt.Errorf("open series file: %w", err)
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		line := 0
		for sc.Scan() {
			line++
			o, ok := s.parse(sc.Text(), line)
			if !ok {
				continue
			}
			select {
			case obs <- o:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			errs <- fmt.Errorf("read series file: %w", err)
		}
	}()

	return obs, errs
}

func (s *SeriesFile) parse(text string, line int) (models.Observation, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return models.Observation{}, false
	}

	fields := strings.Fields(text)
	if len(fields) != 3 {
		s.reject(line, "field count")
		return models.Observation{}, false
	}
	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		s.reject(line, "value parse")
		return models.Observation{}, false
	}
	if value <= 0 {
		s.reject(line, "non-positive value")
		return models.Observation{}, false
	}

	return models.Observation{
		Interval: fields[0],
		Symbol:   fields[1],
		Value:    value,
	}, true
}

func (s *SeriesFile) reject(line int, reason string) {
	s.skipped.Add(1)
	if s.l != nil {
		s.l.Warn("series record rejected",
			applogger.Int("line", line),
			applogger.String("reason", reason),
		)
	}
}

// Skipped returns the number of rejected records.
func (s *SeriesFile) Skipped() int {
	return int(s.skipped.Load())
}

func (s *SeriesFile) Close() error { return nil }
