// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// oldSuffix marks the previous target while ReplaceDir swaps directories.
const oldSuffix = ".old"

// Digest summarizes a directory tree.
type Digest struct {
	// Files holds slash-separated paths relative to the tree root, sorted.
	Files []string
	// Sum is an xxhash over every path and file content in Files order.
	Sum uint64
}

// String returns Sum as 16 hex digits.
func (d Digest) String() string {
	return fmt.Sprintf("%016x", d.Sum)
}

// ResetDir removes path and recreates it empty.
func ResetDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// ReplaceDir moves staging to target, discarding whatever target held before.
// The previous target is moved aside first and removed only after the swap, so
// a failed rename leaves the previous contents in place.
func ReplaceDir(staging, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", target, err)
	}

	old := target + oldSuffix
	if err := os.RemoveAll(old); err != nil {
		return fmt.Errorf("remove stale %s: %w", old, err)
	}

	hadTarget := false
	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, old); err != nil {
			return fmt.Errorf("move aside %s: %w", target, err)
		}
		hadTarget = true
	}

	if err := os.Rename(staging, target); err != nil {
		if hadTarget {
			if restoreErr := os.Rename(old, target); restoreErr != nil {
				return fmt.Errorf("install %s: %w (restore failed: %w)", target, err, restoreErr)
			}
		}
		return fmt.Errorf("install %s: %w", target, err)
	}

	if hadTarget {
		if err := os.RemoveAll(old); err != nil {
			return fmt.Errorf("remove previous %s: %w", old, err)
		}
	}
	return nil
}

// DigestDir lists every regular file under root and hashes paths and contents.
// Two trees with the same relative paths and bytes have the same Sum.
func DigestDir(root string) (Digest, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Digest{}, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(files)

	h := xxhash.New()
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return Digest{}, fmt.Errorf("read %s: %w", rel, err)
		}
		_, _ = h.WriteString(rel)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(data)
		_, _ = h.Write([]byte{0})
	}

	return Digest{Files: files, Sum: h.Sum64()}, nil
}
