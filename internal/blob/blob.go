// Package blob stores uploaded attachment files on disk and hands out
// public URLs for them.
//
// WHY A DISK STORE AND NOT S3?
// The app's object-storage contract is tiny: write a blob, serve it back at
// a stable public URL, delete it if the metadata insert fails. A directory
// behind the server's /files/ route satisfies all three with zero extra
// infrastructure, matching the single-server deployment model of the rest
// of the stack (sqlite, embedded everything). Swapping in a cloud bucket
// later means reimplementing this one small type.
//
// NAMING:
// Stored names are "<xid>_<sanitized original name>". The xid prefix makes
// every upload unique (two files named "diagram.png" never collide) and
// time-ordered; keeping the original name in the path keeps downloaded
// files recognisable.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// MaxBlobSize is the maximum allowed upload size (10 MiB).
const MaxBlobSize = 10 << 20

// Ref is returned after a successful upload.
type Ref struct {
	StoredName string `json:"storedName"` // name on disk and in the /files/ URL
	URL        string `json:"url"`        // public URL clients use
	Size       int64  `json:"size"`       // bytes written
}

// Store writes and serves attachment blobs under a single directory.
type Store struct {
	dir     string
	baseURL string // e.g. "http://localhost:8080" — no trailing slash
}

// NewStore creates the blob directory if needed and returns a Store.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating upload directory %s: %w", dir, err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the directory blobs are stored in, for the file-serving route.
func (s *Store) Dir() string {
	return s.dir
}

// Save reads up to MaxBlobSize bytes from r and writes them to a new file.
//
// The write goes to a ".part" file first and is renamed into place, so a
// request aborted mid-upload never leaves a half-written blob at a
// servable name.
func (s *Store) Save(originalName string, r io.Reader) (*Ref, error) {
	stored := xid.New().String() + "_" + sanitize(originalName)
	path := filepath.Join(s.dir, stored)
	tmp := path + ".part"

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("blob: creating %s: %w", tmp, err)
	}

	// Read one byte past the limit so we can tell "exactly at the limit"
	// from "over it".
	n, err := io.Copy(f, io.LimitReader(r, MaxBlobSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("blob: writing %s: %w", stored, err)
	}
	if n > MaxBlobSize {
		os.Remove(tmp)
		return nil, fmt.Errorf("blob: file exceeds maximum size of %d bytes", MaxBlobSize)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("blob: finalizing %s: %w", stored, err)
	}

	return &Ref{
		StoredName: stored,
		URL:        s.baseURL + "/files/" + stored,
		Size:       n,
	}, nil
}

// Delete removes a stored blob. Used for compensating cleanup when the
// metadata insert fails after a successful upload.
func (s *Store) Delete(storedName string) error {
	name := sanitize(storedName)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("blob: deleting %s: %w", name, err)
	}
	return nil
}

// sanitize strips any path components from an untrusted filename.
//
// filepath.Base alone handles "../../etc/passwd"; the character filter
// additionally drops separators and control characters that survive Base
// on some platforms (backslashes on Linux are legal filename bytes but
// confuse downstream Windows clients).
func sanitize(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
