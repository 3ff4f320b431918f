package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/service"
)

// Watcher monitors an inbox directory for dropped current-stock files and
// runs the projection pipeline on each, writing the recommendation next to
// the configured output directory.
type Watcher struct {
	inboxDir  string
	outputDir string
	svc       *service.RestockService

	// settle is how long to wait after a create event before reading,
	// so a file still being copied in is not parsed half-written.
	settle time.Duration
}

func NewWatcher(inboxDir, outputDir string, svc *service.RestockService) *Watcher {
	return &Watcher{
		inboxDir:  inboxDir,
		outputDir: outputDir,
		svc:       svc,
		settle:    500 * time.Millisecond,
	}
}

// Run blocks until ctx is done, processing files as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.inboxDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.inboxDir, err)
	}

	log.Info().Str("dir", w.inboxDir).Msg("watching inbox for stock files")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isTabular(event.Name) {
				continue
			}
			time.Sleep(w.settle)
			if err := w.process(ctx, event.Name); err != nil {
				log.Error().Err(err).Str("file", event.Name).Msg("failed to process inbox file")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) error {
	table, err := dataset.ReadFile(path)
	if err != nil {
		return err
	}

	set, err := w.svc.ProjectWeekAhead(ctx, table)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(w.outputDir, base+"_rekomendasi.csv")
	if err := service.ResultTable(set).WriteFile(outPath); err != nil {
		return err
	}

	log.Info().
		Str("file", path).
		Str("output", outPath).
		Int("items", len(set.Items)).
		Int("total_restock", set.TotalRestock()).
		Msg("inbox file processed")
	return nil
}

func isTabular(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xls":
		return true
	default:
		return false
	}
}
