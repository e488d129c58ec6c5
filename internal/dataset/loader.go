package dataset

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"superstore-dashboard/internal/observability"
)

// Options configures a Loader.
type Options struct {
	DropInvalidDates bool
	DateLayouts      []string
	// SnapshotDir holds gob snapshots of parsed local files. Empty disables.
	SnapshotDir string
}

// Loader loads a Dataset from its Source at most once per process. The
// first call does the work; every later call returns the same Dataset and
// error. A failed load yields an empty Dataset together with a *LoadError.
type Loader struct {
	source Source
	opts   Options
	logger *slog.Logger

	once    sync.Once
	dataset *Dataset
	stats   LoadStats
	err     error
}

func NewLoader(source Source, opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{source: source, opts: opts, logger: logger}
}

// NewStaticLoader returns a Loader already holding ds.
func NewStaticLoader(ds *Dataset) *Loader {
	l := &Loader{logger: slog.Default()}
	l.once.Do(func() {
		l.dataset = ds
		l.stats = LoadStats{Rows: ds.Len(), Loaded: ds.Len()}
	})
	return l
}

func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	l.once.Do(func() {
		ctx, span := observability.StartSpan(ctx, "dataset.load")
		span.SetTag("source", l.SourceName())
		l.dataset, l.stats, l.err = l.load(ctx)
		span.SetTag("records", strconv.Itoa(l.dataset.Len()))
		span.SetError(l.err)
		span.End(l.logger)
	})
	return l.dataset, l.err
}

// Stats reports the row accounting of the completed load.
func (l *Loader) Stats() LoadStats {
	return l.stats
}

func (l *Loader) SourceName() string {
	if l.source == nil {
		if l.dataset == nil {
			return ""
		}
		return l.dataset.Source()
	}
	return l.source.Name()
}

func (l *Loader) load(ctx context.Context) (*Dataset, LoadStats, error) {
	if l.source == nil {
		return Empty(), LoadStats{}, newLoadError(KindNotFound, "", errors.New("no data source configured"))
	}

	name := l.source.Name()
	decodeOpts := DecodeOptions{DropInvalidDates: l.opts.DropInvalidDates, DateLayouts: l.opts.DateLayouts}

	if ds, stats, ok := l.fromSnapshot(name, decodeOpts); ok {
		return ds, stats, nil
	}

	start := time.Now()
	l.logger.InfoContext(ctx, "loading dataset", "source", name)

	table, err := l.source.Open(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to load dataset", "source", name, "error", err)
		if _, ok := AsLoadError(err); !ok {
			err = newLoadError(KindNetworkFailure, name, err)
		}
		return Empty(), LoadStats{}, err
	}

	records, stats, err := Decode(table, decodeOpts)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to decode dataset", "source", name, "error", err)
		return Empty(), stats, newLoadError(KindParseFailure, name, err)
	}
	if len(records) == 0 {
		l.logger.ErrorContext(ctx, "dataset has no valid records", "source", name, "rows", stats.Rows)
		return Empty(), stats, newLoadError(KindParseFailure, name, errors.New("no valid records found"))
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		"source", name,
		"records", stats.Loaded,
		"skipped", stats.Skipped,
		"missing_dates", stats.MissingDates,
		"dropped_dates", stats.DroppedDates,
		"duration", time.Since(start),
	)

	if _, ok := l.source.(modTimer); ok && l.opts.SnapshotDir != "" {
		snap := snapshot{Source: name, SavedAt: time.Now(), Records: records, Stats: stats}
		if err := saveSnapshot(snapshotPath(l.opts.SnapshotDir, name, decodeOpts), snap); err != nil {
			l.logger.Warn("failed to save snapshot", "source", name, "error", err)
		}
	}

	return New(name, records), stats, nil
}

func (l *Loader) fromSnapshot(name string, opts DecodeOptions) (*Dataset, LoadStats, bool) {
	mt, ok := l.source.(modTimer)
	if !ok || l.opts.SnapshotDir == "" {
		return nil, LoadStats{}, false
	}

	modTime, err := mt.ModTime()
	if err != nil {
		return nil, LoadStats{}, false
	}

	snap, err := loadSnapshot(snapshotPath(l.opts.SnapshotDir, name, opts))
	if err != nil || snap.Source != name || !modTime.Before(snap.SavedAt) {
		return nil, LoadStats{}, false
	}

	l.logger.Info("loaded dataset from snapshot", "source", name, "records", len(snap.Records))
	return New(name, snap.Records), snap.Stats, true
}
