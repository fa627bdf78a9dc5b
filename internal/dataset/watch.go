package dataset

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the dataset file at path and calls onChange with the newly
// loaded Dataset each time the file is written. It runs until ctx is
// cancelled.
//
// If a reload fails (invalid JSON, validation error), the error is logged
// and the previous dataset remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(Dataset)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("dataset: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			ds, err := Load(path)
			if err != nil {
				slog.Error("dataset: reload failed — keeping previous dataset",
					"path", path, "err", err)
				continue
			}

			slog.Info("dataset: reloaded", "path", path, "runs", len(ds.Runs))
			onChange(ds)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("dataset: watcher error", "err", err)
		}
	}
}
