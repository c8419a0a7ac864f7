package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/sincaw/vodstream/cmd/vodstream/server/common"
	"github.com/sincaw/vodstream/pkg"
)

func newCatalog(t *testing.T) pkg.DB {
	db, err := pkg.New("", pkg.InMemory())
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, root, rel string, content []byte) {
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.Nil(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.Nil(t, os.WriteFile(p, content, 0o644))
}

func newScanner(t *testing.T, db pkg.DB, root string, exts ...string) *Scanner {
	if len(exts) == 0 {
		exts = []string{".mp4", ".webm", ".mkv"}
	}
	s, err := New(db, common.ScannerConfig{
		MediaRoot:  root,
		Extensions: exts,
		Workers:    2,
	})
	require.Nil(t, err)
	return s
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "buenos_aires.mp4", []byte("mp4"))
	writeFile(t, root, "trips/rome.webm", []byte("webm"))
	writeFile(t, root, "trips/rome.mkv", []byte("dup"))
	writeFile(t, root, ".hidden/secret.mp4", []byte("x"))
	writeFile(t, root, ".dot.mp4", []byte("x"))
	writeFile(t, root, "notes.txt", []byte("x"))

	db := newCatalog(t)
	s := newScanner(t, db, root)

	report, err := s.Scan(context.Background())
	require.Nil(t, err)
	require.Equal(t, Report{Added: 2, Duplicates: 1}, report)

	e, err := db.Get("buenos_aires")
	require.Nil(t, err)
	require.Equal(t, "buenos_aires.mp4", e.Path)
	require.Equal(t, "video/mp4", e.Mime)

	// rome.mkv sorts before rome.webm and wins the id
	e, err = db.Get("trips/rome")
	require.Nil(t, err)
	require.Equal(t, "trips/rome.mkv", e.Path)
	require.Equal(t, "video/x-matroska", e.Mime)

	meta, err := db.Meta()
	require.Nil(t, err)
	require.False(t, meta.LastScan.IsZero())

	// nothing changed
	report, err = s.Scan(context.Background())
	require.Nil(t, err)
	require.Equal(t, Report{Unchanged: 2, Duplicates: 1}, report)

	// removal and modification
	require.Nil(t, os.Remove(filepath.Join(root, "buenos_aires.mp4")))
	future := time.Now().Add(time.Hour)
	require.Nil(t, os.Chtimes(filepath.Join(root, "trips", "rome.mkv"), future, future))
	report, err = s.Scan(context.Background())
	require.Nil(t, err)
	require.Equal(t, Report{Updated: 1, Removed: 1, Duplicates: 1}, report)

	_, err = db.Get("buenos_aires")
	require.True(t, isNotFound(err))
}

func TestScanSniffsUnknownExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "clip.xyzv", []byte("\x1a\x45\xdf\xa3 matroska"))
	writeFile(t, root, "empty.xyzv", nil)

	db := newCatalog(t)
	_, err := newScanner(t, db, root, ".xyzv").Scan(context.Background())
	require.Nil(t, err)

	e, err := db.Get("clip")
	require.Nil(t, err)
	require.Equal(t, "video/webm", e.Mime)

	e, err = db.Get("empty")
	require.Nil(t, err)
	require.Equal(t, octetStream, e.Mime)
}

func TestScanMissingRoot(t *testing.T) {
	db := newCatalog(t)
	_, err := newScanner(t, db, filepath.Join(t.TempDir(), "gone")).Scan(context.Background())
	require.NotNil(t, err)
}

func TestStartScansImmediately(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.mp4", []byte("a"))

	db := newCatalog(t)
	s := newScanner(t, db, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		ok, err := db.Exists("a")
		return err == nil && ok
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestGoStopsBeforeCatalogClose(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 200; i++ {
		writeFile(t, root, fmt.Sprintf("v%03d.mp4", i), []byte("v"))
	}

	db, err := pkg.New("", pkg.InMemory())
	require.Nil(t, err)
	s := newScanner(t, db, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Go(ctx)
	require.Eventually(t, func() bool {
		n, err := db.Count()
		return err == nil && n > 0
	}, 5*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}
	require.Nil(t, db.Close())
}

func TestScanClosedCatalog(t *testing.T) {
	db, err := pkg.New("", pkg.InMemory())
	require.Nil(t, err)
	s := newScanner(t, db, t.TempDir())
	require.Nil(t, db.Close())

	require.NotPanics(t, func() {
		_, err = s.Scan(context.Background())
	})
	require.True(t, errors.Is(err, pkg.ErrDBClosed), "%v", err)
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(newCatalog(t), common.ScannerConfig{MediaRoot: "/m", Extensions: []string{".mp4"}})
	require.NotNil(t, err)

	_, err = New(newCatalog(t), common.ScannerConfig{MediaRoot: "/m", Extensions: []string{".mp4"}, Workers: 1, Cron: "@every 1m"})
	require.Nil(t, err)
}

func TestTriggerCoalesces(t *testing.T) {
	s := newScanner(t, newCatalog(t), t.TempDir())
	s.Trigger()
	s.Trigger()
	require.Len(t, s.notifyCh, 1)
}
