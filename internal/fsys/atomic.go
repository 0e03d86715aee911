/*
Copyright © 2025 Logicos Software

atomic.go implements atomic file writes for the write command.

Content goes to a temporary file next to the target and is renamed over
it on commit, so an aborted pipeline never leaves a partial key store or
certificate behind.
*/
package fsys

import (
	"errors"
	"os"
	"path/filepath"

	"pkipipe/internal/errs"
)

// AtomicWriter writes to a temporary file and renames it onto the target
// on Commit.
type AtomicWriter struct {
	targetPath string
	tempPath   string
	tempFile   *os.File
	written    bool
	committed  bool
	aborted    bool
}

// NewAtomicWriter creates a writer for targetPath. The temporary file lives
// in the target directory so the rename stays on one filesystem.
//
// If the target exists and allowOverwrite is false, it returns an error.
func NewAtomicWriter(targetPath string, allowOverwrite bool) (*AtomicWriter, error) {
	if !allowOverwrite {
		if _, err := os.Stat(targetPath); err == nil {
			return nil, errs.FileAlreadyExists(targetPath)
		}
	}

	dir := filepath.Dir(targetPath)
	base := filepath.Base(targetPath)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.FilePermission(dir, err)
	}

	// Key material: owner-only permissions
	tempPath := filepath.Join(dir, "."+base+".tmp")
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, errs.FilePermission(tempPath, err)
	}

	return &AtomicWriter{
		targetPath: targetPath,
		tempPath:   tempPath,
		tempFile:   tempFile,
	}, nil
}

// Write implements io.Writer.
func (w *AtomicWriter) Write(p []byte) (n int, err error) {
	if w.committed || w.aborted {
		return 0, errors.New("fsys: write after commit or abort")
	}
	n, err = w.tempFile.Write(p)
	if n > 0 {
		w.written = true
	}
	return n, err
}

// Commit syncs the temporary file and renames it onto the target. A
// second Commit is a no-op.
func (w *AtomicWriter) Commit() error {
	if w.committed {
		return nil
	}
	if w.aborted {
		return errors.New("fsys: commit after abort")
	}

	if err := w.tempFile.Sync(); err != nil {
		w.Abort()
		return err
	}
	if err := w.tempFile.Close(); err != nil {
		os.Remove(w.tempPath)
		w.aborted = true
		return err
	}

	if err := os.Rename(w.tempPath, w.targetPath); err != nil {
		os.Remove(w.tempPath)
		w.aborted = true
		return errs.AtomicWriteFailed(w.targetPath, err)
	}

	w.committed = true
	return nil
}

// Close commits when something was written and discards the temporary
// file otherwise.
func (w *AtomicWriter) Close() error {
	if w.committed || w.aborted {
		return nil
	}
	if !w.written {
		w.Abort()
		return nil
	}
	return w.Commit()
}

// Abort discards the temporary file. It is safe to call after Commit, so
// callers can defer it.
func (w *AtomicWriter) Abort() {
	if w.committed || w.aborted {
		return
	}
	w.aborted = true
	w.tempFile.Close()
	os.Remove(w.tempPath)
}
