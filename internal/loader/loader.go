// Package loader streams line-delimited JSON into a store.
//
// One bad line never aborts a load: parse and validation failures are logged
// with the offending line and skipped. Only failing to open or read the
// source is returned as an error.
package loader

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Unlimited disables the record cap. Any limit <= 0 behaves the same.
const Unlimited = -1

const (
	// DefaultReclaimEvery is the number of successful adds between
	// memory-reclamation hints.
	DefaultReclaimEvery = 1000

	// DefaultReportEvery is the number of successful adds between progress
	// log lines.
	DefaultReportEvery = 10000
)

// Sink receives parsed records. *store.Store satisfies it.
type Sink interface {
	Name() string
	Add(input map[string]any) (int64, error)
}

// Options configures a Loader. Zero values select the defaults.
type Options struct {
	// Parser converts lines to records. Defaults to JSONParser.
	Parser Parser

	// Logger receives per-line errors, progress and the final summary.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Reclaim is called every ReclaimEvery successful adds.
	// Defaults to runtime.GC.
	Reclaim func()

	ReclaimEvery int
	ReportEvery  int
}

// Loader ingests line sources into sinks.
type Loader struct {
	parser       Parser
	logger       *slog.Logger
	reclaim      func()
	reclaimEvery int
	reportEvery  int
}

// New creates a Loader, filling unset options with defaults.
func New(opts Options) *Loader {
	l := &Loader{
		parser:       opts.Parser,
		logger:       opts.Logger,
		reclaim:      opts.Reclaim,
		reclaimEvery: opts.ReclaimEvery,
		reportEvery:  opts.ReportEvery,
	}
	if l.parser == nil {
		l.parser = JSONParser{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.reclaim == nil {
		l.reclaim = runtime.GC
	}
	if l.reclaimEvery <= 0 {
		l.reclaimEvery = DefaultReclaimEvery
	}
	if l.reportEvery <= 0 {
		l.reportEvery = DefaultReportEvery
	}
	return l
}

// Result summarises one load.
type Result struct {
	Loaded  int
	Skipped int
}

// LoadLines reads src until it is exhausted or limit records were added,
// and returns the number added. Blank lines are skipped without counting.
//
// The returned error is non-nil only when src reports a read error; the
// count of records added before the failure is still returned.
func (l *Loader) LoadLines(src LineSource, dst Sink, limit int) (int, error) {
	res, err := l.load(src, dst, limit)
	return res.Loaded, err
}

// Load is LoadLines with the skipped-line count included.
func (l *Loader) Load(src LineSource, dst Sink, limit int) (Result, error) {
	return l.load(src, dst, limit)
}

func (l *Loader) load(src LineSource, dst Sink, limit int) (Result, error) {
	var res Result
	for (limit <= 0 || res.Loaded < limit) && src.Scan() {
		line := src.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := l.parser.Parse(line)
		if err == nil {
			_, err = dst.Add(rec)
		}
		if err != nil {
			res.Skipped++
			l.logger.Warn("error parsing line", "line", line, "error", err)
			continue
		}

		res.Loaded++
		if res.Loaded%l.reclaimEvery == 0 {
			l.reclaim()
		}
		if res.Loaded%l.reportEvery == 0 {
			l.logger.Info("load progress", "records", res.Loaded, "store", dst.Name())
		}
	}

	l.logger.Info("load complete", "records", res.Loaded, "skipped", res.Skipped, "store", dst.Name())

	if err := src.Err(); err != nil {
		return res, fmt.Errorf("read source: %w", err)
	}
	return res, nil
}

// LoadFile opens path and loads it into dst. A file that cannot be opened
// is a SOURCE_OPEN error.
func (l *Loader) LoadFile(path string, dst Sink, limit int) (int, error) {
	src, err := OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return l.LoadLines(src, dst, limit)
}

// LoadJSONFile loads every record of a JSON-lines file with default options.
func LoadJSONFile(path string, dst Sink) (int, error) {
	return New(Options{}).LoadFile(path, dst, Unlimited)
}
