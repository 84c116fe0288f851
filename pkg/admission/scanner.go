package admission

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
)

// Result is one classified file.
type Result struct {
	Path    string      `json:"path"`
	Verdict api.Verdict `json:"verdict"`
	Err     error       `json:"-"`
}

// Report aggregates one directory scan.
type Report struct {
	ScanID   string    `json:"scan_id"`
	Root     string    `json:"root"`
	Results  []Result  `json:"results"`
	Accepted int       `json:"accepted"`
	Rejected int       `json:"rejected"`
	Errored  int       `json:"errored"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Scanner composes many independent Classify calls over a directory
// tree. Classification itself never blocks on I/O; the scanner owns
// reading each file's head sample and therefore owns the error surface
// for unreadable files.
type Scanner struct {
	filter     *Filter
	workers    int
	sampleSize int
	logger     *slog.Logger
}

// NewScanner builds a scanner over filter with the given scan config.
func NewScanner(filter *Filter, cfg *api.ScanConfig) *Scanner {
	return &Scanner{
		filter:     filter,
		workers:    cfg.GetWorkers(),
		sampleSize: cfg.GetSampleSize(),
		logger:     filter.logger,
	}
}

// Scan walks root and classifies every regular file with a bounded
// worker pool. A file that cannot be read is recorded with its error
// and the scan continues; only a walk failure or context cancellation
// aborts. Results come back sorted by path.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	report := &Report{
		ScanID:  uuid.New().String(),
		Root:    root,
		Started: time.Now().UTC(),
	}

	paths := make(chan string)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(paths)
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				return errx.With(ErrWalkTree, ": %s: %w", path, err)
			}
			if !d.Type().IsRegular() {
				return nil
			}
			select {
			case paths <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for path := range paths {
				res := s.classifyFile(path)
				mu.Lock()
				report.Results = append(report.Results, res)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Path < report.Results[j].Path
	})
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			report.Errored++
		case res.Verdict.Accepted():
			report.Accepted++
		default:
			report.Rejected++
		}
	}
	report.Finished = time.Now().UTC()

	s.logger.Info("scan finished",
		"scan_id", report.ScanID,
		"root", root,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"errored", report.Errored,
	)
	return report, nil
}

func (s *Scanner) classifyFile(path string) Result {
	sample, err := readHead(path, s.sampleSize)
	if err != nil {
		s.logger.Warn("cannot read file head", "path", path, "error", err)
		return Result{Path: path, Err: errx.Wrap(ErrReadSample, err)}
	}
	return Result{Path: path, Verdict: s.filter.Classify(path, sample)}
}

// readHead reads up to n bytes from the start of the file. A file
// shorter than n yields a short sample, which is fine: a near-empty
// file cannot be binary.
func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:read], nil
}
