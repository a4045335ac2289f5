// Package presets implements preset-file naming and storage: files of
// any extension under a sanitized-filename scheme, split between
// built-in (read-only) and user-created presets. cmd/server stores its
// composition presets here as XML.
package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardOK   bool
)

func clipboardInit() bool {
	clipboardOnce.Do(func() {
		clipboardOK = clipboard.Init() == nil
	})
	return clipboardOK
}

var invalidChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeName collapses each run of characters outside [A-Za-z0-9_-]
// to a single underscore. An empty name falls back to "preset" so
// callers never produce an empty file name.
func SanitizeName(name string) string {
	clean := invalidChars.ReplaceAllString(name, "_")
	if clean == "" {
		return "preset"
	}
	return clean
}

// Kind distinguishes built-in (read-only) presets from user-created ones.
type Kind int

const (
	KindUser Kind = iota
	KindBuiltin
)

// Store locates preset files under a root directory, split into
// user/ and builtin/ subdirectories.
type Store struct {
	Root string
}

// NewStore creates both subdirectories if missing.
func NewStore(root string) (*Store, error) {
	for _, sub := range []string{"user", "builtin"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create preset dir %s: %w", sub, err)
		}
	}
	return &Store{Root: root}, nil
}

func (s *Store) dir(kind Kind) string {
	if kind == KindBuiltin {
		return filepath.Join(s.Root, "builtin")
	}
	return filepath.Join(s.Root, "user")
}

// Path returns the sanitized on-disk path for a named preset with the
// given extension (e.g. "json" or "xml").
func (s *Store) Path(kind Kind, name, ext string) string {
	return filepath.Join(s.dir(kind), SanitizeName(name)+"."+ext)
}

// CopyPath copies a preset's on-disk path to the system clipboard, so an
// operator can paste it straight into a file dialog or shell command. It
// returns false (without error) when no clipboard is available.
func (s *Store) CopyPath(kind Kind, name, ext string) bool {
	if !clipboardInit() {
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(s.Path(kind, name, ext)))
	return true
}

// Save writes data to a user preset; it never writes to the built-in
// directory.
func (s *Store) Save(name, ext string, data []byte) error {
	path := s.Path(KindUser, name, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save preset %s: %w", name, err)
	}
	return nil
}

// Load reads a preset by name, preferring a user preset over a built-in
// one with the same name.
func (s *Store) Load(name, ext string) ([]byte, error) {
	userPath := s.Path(KindUser, name, ext)
	if data, err := os.ReadFile(userPath); err == nil {
		return data, nil
	}
	data, err := os.ReadFile(s.Path(KindBuiltin, name, ext))
	if err != nil {
		return nil, fmt.Errorf("load preset %s: %w", name, err)
	}
	return data, nil
}

// List returns the sanitized base names of every preset of the given
// kind and extension.
func (s *Store) List(kind Kind, ext string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(kind))
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	var names []string
	suffix := "." + ext
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == suffix {
			names = append(names, e.Name()[:len(e.Name())-len(suffix)])
		}
	}
	return names, nil
}
