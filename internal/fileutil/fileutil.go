// Package fileutil moves finished pipeline artifacts into place. The output
// directory commonly sits on a different filesystem than the workspace (NAS
// library vs local scratch), so moves fall back to a verified copy when a
// plain rename is not possible.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// MoveFile renames src to dst, creating the target directory as needed.
// Cross-device renames fall back to a verified copy followed by source
// removal, so a dubbed video can be published onto a different filesystem.
func MoveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := copyVerified(src, dst); err != nil {
			return fmt.Errorf("copy file across devices: %w", err)
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
		return nil
	}
	return fmt.Errorf("move file: %w", renameErr)
}

// copyVerified streams src to dst while hashing both sides, then compares
// size and digest. A mismatch removes the partial dst so the caller never
// publishes a corrupted file.
func copyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	// discard drops the partial destination on any failure past this point.
	discard := func(err error) error {
		_ = os.Remove(dst)
		return err
	}
	srcHash, dstHash := sha256.New(), sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHash), io.TeeReader(in, srcHash))
	if err != nil {
		return discard(err)
	}
	if err := out.Close(); err != nil {
		return discard(err)
	}
	switch {
	case written != info.Size():
		return discard(fmt.Errorf("short copy: source %d bytes, copied %d bytes", info.Size(), written))
	case !bytes.Equal(srcHash.Sum(nil), dstHash.Sum(nil)):
		return discard(errors.New("digest mismatch after copy"))
	}
	return nil
}
