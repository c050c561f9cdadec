package persist

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FileName is the per-world retention file.
const FileName = "cartload_retention.json"

// FileStorage keeps one JSON file per world under root/<world key>/.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

// worldKeyDigest is the number of blake2b bytes appended to a world key.
const worldKeyDigest = 6

// WorldKey turns a world identifier into a directory name. The readable
// prefix is NFC normalised, case folded, with anything but letters, digits,
// '-' and '_' replaced by '_'. Folding is lossy, so a digest of the raw id
// follows: "minecraft:The_Nether" becomes "minecraft_the_nether-<12 hex>".
func WorldKey(world string) string {
	folded := cases.Fold().String(norm.NFC.String(world))
	prefix := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, folded)
	if prefix == "" {
		prefix = "_"
	}
	sum := blake2b.Sum256([]byte(world))
	return prefix + "-" + hex.EncodeToString(sum[:worldKeyDigest])
}

// Path returns the file holding world's retention state.
func (s *FileStorage) Path(world string) string {
	return filepath.Join(s.root, WorldKey(world), FileName)
}

// Read returns nil, nil when the world has no file.
func (s *FileStorage) Read(_ context.Context, world string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(world))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path(world), err)
	}
	return data, nil
}

// Write replaces the world's file through a temp file and rename, so readers
// see either the old or the new content.
func (s *FileStorage) Write(_ context.Context, world string, data []byte) error {
	path := s.Path(world)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Delete removes the world's file. A missing file is not an error.
func (s *FileStorage) Delete(_ context.Context, world string) error {
	err := os.Remove(s.Path(world))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.Path(world), err)
	}
	return nil
}
