// Package archive loads ROM bytes from either a raw image file or a
// compressed archive (.zip, .7z); from an archive, the first member with a
// ROM extension is used and any further ROM members are ignored.
// Grounded on the class of Go emulators that ship bodgit/sevenzip for this
// exact purpose (see SPEC_FULL.md §4.8).
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// ErrNoROMInArchive is returned when an archive is opened successfully but
// contains no member with a recognized ROM extension.
var ErrNoROMInArchive = errors.New("archive: no rom image found in archive")

var romExtensions = map[string]bool{
	".gb":  true,
	".gbc": true,
	".sgb": true,
}

// Load returns the raw bytes of the ROM at path, plus the name of the
// archive member the bytes came from (equal to filepath.Base(path) for a
// raw ROM file). Supported archive formats are .zip and .7z; any other
// extension is read directly as a raw image.
func Load(path string) (rom []byte, member string, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zip":
		return loadZip(path)
	case ".7z":
		return loadSevenZip(path)
	case ".gb", ".gbc", ".sgb":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(path), nil
	default:
		// Unknown extension: best-effort, read as a raw image rather than
		// rejecting outright (some ROM dumps carry no extension at all).
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(path), nil
	}
}

func loadZip(path string) ([]byte, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("archive: opening zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !romExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("archive: reading %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, "", fmt.Errorf("archive: reading %s: %w", f.Name, err)
		}
		return data, f.Name, nil
	}
	return nil, "", ErrNoROMInArchive
}

func loadSevenZip(path string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("archive: opening 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !romExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("archive: reading %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, "", fmt.Errorf("archive: reading %s: %w", f.Name, err)
		}
		return data, f.Name, nil
	}
	return nil, "", ErrNoROMInArchive
}
