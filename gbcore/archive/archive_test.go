package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRawROMFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.gb")
	want := []byte{0x00, 0xC3, 0x50, 0x01}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, member, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if member != "game.gb" {
		t.Errorf("member = %q; want game.gb", member)
	}
	if string(data) != string(want) {
		t.Errorf("data = %v; want %v", data, want)
	}
}

func TestLoadZipArchiveFindsROMMember(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w := zip.NewWriter(f)
	readme, err := w.Create("readme.txt")
	if err != nil {
		t.Fatalf("Create readme entry: %v", err)
	}
	if _, err := readme.Write([]byte("not a rom")); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	rom, err := w.Create("game.gbc")
	if err != nil {
		t.Fatalf("Create rom entry: %v", err)
	}
	want := []byte{0x11, 0x22, 0x33}
	if _, err := rom.Write(want); err != nil {
		t.Fatalf("write rom: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file.Close: %v", err)
	}

	data, member, err := Load(zipPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if member != "game.gbc" {
		t.Errorf("member = %q; want game.gbc", member)
	}
	if string(data) != string(want) {
		t.Errorf("data = %v; want %v", data, want)
	}
}

func TestLoadZipArchiveWithNoROMMember(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "empty.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w := zip.NewWriter(f)
	if _, err := w.Create("readme.txt"); err != nil {
		t.Fatalf("Create readme entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file.Close: %v", err)
	}

	_, _, err = Load(zipPath)
	if err != ErrNoROMInArchive {
		t.Fatalf("err = %v; want ErrNoROMInArchive", err)
	}
}
