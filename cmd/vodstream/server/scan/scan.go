package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sincaw/vodstream/cmd/vodstream/server/common"
	"github.com/sincaw/vodstream/cmd/vodstream/server/utils"
	"github.com/sincaw/vodstream/pkg"
)

var (
	logger = utils.Logger()
)

// Report counts what one scan changed in the catalog
type Report struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	// files sharing an id with an earlier file
	Duplicates int
}

// Scanner keeps the catalog in line with files under the media root
type Scanner struct {
	db     pkg.DB
	config common.ScannerConfig
	exts   map[string]bool

	// one scan at a time
	mu       sync.Mutex
	cron     *cron.Cron
	notifyCh chan struct{}
	now      func() time.Time
}

// New Scanner instance with catalog db and its configuration
func New(db pkg.DB, config common.ScannerConfig) (*Scanner, error) {
	if err := config.Valid(); err != nil {
		return nil, err
	}

	exts := map[string]bool{}
	for _, e := range config.Extensions {
		exts[strings.ToLower(e)] = true
	}

	s := &Scanner{
		db:       db,
		config:   config,
		exts:     exts,
		notifyCh: make(chan struct{}, 1),
		now:      time.Now,
	}

	if config.Cron != "" {
		c := cron.New()
		_, err := c.AddFunc(config.Cron, s.Trigger)
		if err != nil {
			return nil, err
		}
		s.cron = c
	}
	return s, nil
}

// Trigger requests a scan, it is dropped when one is already pending
func (s *Scanner) Trigger() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start scans right now and then on schedule until ctx is done
func (s *Scanner) Start(ctx context.Context) {
	s.Trigger()

	if s.cron != nil {
		s.cron.Start()
		defer s.cron.Stop()
	}

	for {
		select {
		case <-s.notifyCh:
			if ctx.Err() != nil {
				return
			}
			report, err := s.Scan(ctx)
			if err != nil {
				logger.Error("scan media library fail ", err)
				continue
			}
			logger.Infof("scan done %+v", report)
		case <-ctx.Done():
			return
		}
	}
}

// Go runs Start in background, the returned channel is closed once no scan is running.
// The catalog must stay open until then.
func (s *Scanner) Go(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()
	return done
}

type found struct {
	id, rel, full string
}

// Scan walks the media root once and updates the catalog
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report Report
	files, dup, err := s.walk()
	if err != nil {
		return report, errors.Wrapf(err, "walk media root %s", s.config.MediaRoot)
	}
	report.Duplicates = dup

	var (
		mu       sync.Mutex
		scanTime = s.now().UTC()
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.config.Workers)
	for _, f := range files {
		f := f
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			change, err := s.register(f, scanTime)
			if err != nil {
				return err
			}
			mu.Lock()
			switch change {
			case changeAdded:
				report.Added++
			case changeUpdated:
				report.Updated++
			default:
				report.Unchanged++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, err
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f.id] = true
	}
	removed, err := s.prune(seen)
	report.Removed = removed
	if err != nil {
		return report, err
	}

	return report, s.db.SetLastScan(scanTime)
}

// walk lists files with accepted extensions, dot files and dirs are skipped
func (s *Scanner) walk() (files []found, duplicates int, err error) {
	root := s.config.MediaRoot
	ids := map[string]string{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		id := utils.ResourceID(rel)
		if prev, ok := ids[id]; ok {
			logger.Warnf("skip %q, id %q already used by %q", rel, id, prev)
			duplicates++
			return nil
		}
		ids[id] = rel
		files = append(files, found{id: id, rel: rel, full: p})
		return nil
	})
	return
}

type change int

const (
	changeNone change = iota
	changeAdded
	changeUpdated
)

func (s *Scanner) register(f found, scanTime time.Time) (change, error) {
	l := logger.With("id", f.id)

	info, err := probe(f.full)
	if err != nil {
		return changeNone, errors.Wrapf(err, "probe %q", f.rel)
	}

	prev, err := s.db.Get(f.id)
	ret := changeAdded
	switch {
	case err == nil:
		if prev.Path == f.rel && prev.Mime == info.mime && prev.ModTime.Equal(info.modTime) {
			ret = changeNone
		} else {
			ret = changeUpdated
		}
	case !isNotFound(err):
		return changeNone, err
	}

	e := &pkg.Entry{
		ID:        f.id,
		Path:      f.rel,
		Mime:      info.mime,
		ModTime:   info.modTime,
		ScannedAt: scanTime,
	}
	if err := s.db.Put(e); err != nil {
		return changeNone, errors.Wrapf(err, "save entry %q", f.id)
	}
	if ret != changeNone {
		l.Debugf("registered %q as %s", f.rel, info.mime)
	}
	return ret, nil
}

// prune deletes entries whose files are gone
func (s *Scanner) prune(seen map[string]bool) (int, error) {
	iter, err := s.db.Find()
	if err != nil {
		return 0, err
	}
	var stale []string
	for iter.Next() {
		if id := iter.Key(); !seen[id] {
			stale = append(stale, id)
		}
	}
	iter.Release()

	for _, id := range stale {
		if err := s.db.Delete(id); err != nil {
			return 0, errors.Wrapf(err, "delete entry %q", id)
		}
		logger.Infof("removed stale resource %q", id)
	}
	return len(stale), nil
}
