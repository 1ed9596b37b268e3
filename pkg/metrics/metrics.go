// Package metrics stores process gauges in an embedded tstorage database
// under the application workdir. Collection happens on scheduler ticks; the
// admin API reads recent points back for dashboards.
package metrics

import (
	"path/filepath"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
)

var storage tstorage.Storage

// InitMetrics opens the metric store under <workdir>/data/metrics.
func InitMetrics(workdir string) error {
	var err error
	storage, err = tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(7*24*time.Hour),
	)
	if err != nil {
		return errors.Wrap(err, "open metrics storage")
	}
	return nil
}

// SetGauge records the current value of a named gauge.
func SetGauge(name string, value int64) {
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric: name,
			DataPoint: tstorage.DataPoint{
				Timestamp: time.Now().Unix(),
				Value:     float64(value),
			},
		},
	})
}

// IncrCounter records a counter sample (stored as points, summed by readers).
func IncrCounter(name string, delta int64) {
	SetGauge(name, delta)
}

// Query returns the data points for a metric between start and end.
func Query(name string, start, end time.Time) ([]*tstorage.DataPoint, error) {
	if storage == nil {
		return nil, errors.New("metrics storage not initialized")
	}
	points, err := storage.Select(name, nil, start.Unix(), end.Unix())
	if err != nil {
		if errors.Is(err, tstorage.ErrNoDataPoints) {
			return []*tstorage.DataPoint{}, nil
		}
		return nil, errors.Wrapf(err, "select metric %s", name)
	}
	return points, nil
}

// Close flushes and closes the metric store.
func Close() error {
	if storage == nil {
		return nil
	}
	return storage.Close()
}
