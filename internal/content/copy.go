package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Copy streams source (file or URL) to dst and verifies the written bytes
// against a BLAKE2b digest of what was read. dst is written through a
// temporary file in the same directory and renamed into place, so a failed
// copy never leaves a partial document behind.
func Copy(ctx context.Context, source, dst string) error {
	in, err := open(ctx, source)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	srcHasher, _ := blake2b.New256(nil)
	written, err := io.Copy(tmp, io.TeeReader(in, srcHasher))
	if err != nil {
		return fmt.Errorf("copying %s: %w", source, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	sum, size, err := fileDigest(tmpPath)
	if err != nil {
		return err
	}
	if size != written {
		return fmt.Errorf("copy size mismatch: read %d bytes, wrote %d bytes", written, size)
	}
	if !bytes.Equal(srcHasher.Sum(nil), sum) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("moving document into place: %w", err)
	}
	return nil
}

func fileDigest(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h, _ := blake2b.New256(nil)
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), n, nil
}
