package presets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"My Preset!":   "My_Preset_",
		"clip-01_take": "clip-01_take",
		"###": "_",
		"":    "preset",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStoreSaveLoadPrefersUser(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	builtinPath := store.Path(KindBuiltin, "intro", "xml")
	if err := os.WriteFile(builtinPath, []byte("builtin"), 0o644); err != nil {
		t.Fatalf("seed builtin preset: %v", err)
	}

	data, err := store.Load("intro", "xml")
	if err != nil {
		t.Fatalf("Load builtin: %v", err)
	}
	if string(data) != "builtin" {
		t.Fatalf("Load = %q, want %q", data, "builtin")
	}

	if err := store.Save("intro", "xml", []byte("user")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err = store.Load("intro", "xml")
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if string(data) != "user" {
		t.Fatalf("Load after Save = %q, want user preset to take precedence", data)
	}
}

func TestStoreList(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, name := range []string{"a", "b"} {
		if err := store.Save(name, "json", []byte("{}")); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "user", "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed non-matching file: %v", err)
	}

	names, err := store.List(KindUser, "json")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2: %v", len(names), names)
	}
}
