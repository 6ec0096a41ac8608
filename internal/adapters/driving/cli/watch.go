package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lumina-labs/askdoc-cli/internal/core/domain"
	"github.com/lumina-labs/askdoc-cli/internal/logger"
)

// settleDelay is how long a file must stay quiet after its last write
// event before it is ingested. Editors and copies produce bursts of
// writes for a single file.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and index files dropped into it",
	Long: `Watches a directory and automatically indexes supported files as they
are created or modified. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// supportsChecker is implemented by extractors that can say up front
// which paths they handle.
type supportsChecker interface {
	Supports(path string) bool
}

func runWatch(cmd *cobra.Command, args []string) error {
	if engineService == nil {
		return errors.New("engine service not configured")
	}
	if extractorService == nil {
		return errors.New("text extractor not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !supported(event.Name) {
				continue
			}

			// Restart the settle timer on every burst of writes.
			path := event.Name
			mu.Lock()
			if timer, exists := timers[path]; exists {
				timer.Stop()
			}
			timers[path] = time.AfterFunc(settleDelay, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				ingestWatched(ctx, cmd, path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// supported asks the extractor when it can answer, otherwise accepts
// everything and lets extraction decide.
func supported(path string) bool {
	if checker, ok := extractorService.(supportsChecker); ok {
		return checker.Supports(path)
	}
	return true
}

// ingestWatched runs one watched file through the pipeline.
func ingestWatched(ctx context.Context, cmd *cobra.Command, path string) {
	if ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return
	}

	text, err := extractorService.Extract(ctx, path)
	if err != nil {
		cmd.Printf("Skipped %s: %v\n", filepath.Base(path), err)
		return
	}

	doc, err := engineService.Ingest(ctx, uuid.New().String(), filepath.Base(path), text, info.Size())
	if err != nil {
		cmd.Printf("Failed to index %s: %v\n", filepath.Base(path), err)
		return
	}

	if doc.Status == domain.StatusFailed {
		cmd.Printf("Failed to index %s: %s\n", doc.Filename, doc.ErrorMessage)
		return
	}
	cmd.Printf("Indexed %s (%d chunks, document %s)\n", doc.Filename, doc.ChunkCount, doc.ID)
}
