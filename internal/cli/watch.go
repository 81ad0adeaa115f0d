package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// debounce is how long watch waits for edits to settle before regenerating.
var debounce = 200 * time.Millisecond

func newWatchCommand() *cobra.Command {
	var config GenerateConfig

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate unit companion types whenever sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := prepare(cmd, &config); err != nil {
				return err
			}
			return Watch(cmd.Context(), &config, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addGenerateFlags(cmd, &config)
	return cmd
}

// Watch generates once and then again after every change to a watched
// source, until ctx is done. Failed passes are reported to stderr and do not
// stop the watch.
func Watch(ctx context.Context, config *GenerateConfig, stdout, stderr io.Writer) error {
	return watch(ctx, config, stdout, stderr, nil)
}

// watch is Watch with a hook called once the watcher is installed.
func watch(ctx context.Context, config *GenerateConfig, stdout, stderr io.Writer, ready func()) error {
	log := Logger()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dirs, err := watchDirs(config)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	regenerate := func() {
		if err := Generate(ctx, config, stdout, stderr); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}
	regenerate()
	if ready != nil {
		ready()
	}
	log.Info("watching", zap.Int("directories", len(dirs)))

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && config.DefsPath == "" {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !skipDir(fi.Name()) {
					if err := w.Add(ev.Name); err != nil {
						log.Warn("watch directory", zap.String("dir", ev.Name), zap.Error(err))
					}
					continue
				}
			}
			if !relevant(config, ev) {
				continue
			}
			log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher", zap.Error(err))
		case <-fire:
			regenerate()
		}
	}
}

func watchDirs(config *GenerateConfig) ([]string, error) {
	if config.DefsPath != "" {
		return []string{filepath.Dir(config.DefsPath)}, nil
	}
	dirs, err := sourceDirs(config.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", config.SourcePath, err)
	}
	return dirs, nil
}

// relevant reports whether ev can change the generated output. Writes to
// generated files are ignored so regenerating does not trigger itself.
func relevant(config *GenerateConfig, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if config.DefsPath != "" {
		return filepath.Clean(ev.Name) == filepath.Clean(config.DefsPath)
	}
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	return !strings.HasSuffix(name, config.fileSuffix())
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
