// =============================================================================
// Column Splitter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the callers of the
// splitter, including:
//   - Directory management (ensure, clear)
//   - Upload staging (extension check, filename sanitizing)
//   - Output discovery in natural part order
//   - Combined ZIP archives of the split files
//
// CLEARING POLICY:
//   Callers clear the upload and output directories before each run. Only
//   regular files are removed; subdirectories are left alone.
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/facette/natsort"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// AllowedExtensions lists the upload extensions accepted, without the dot.
var AllowedExtensions = []string{"xlsx", "xls"}

// ErrDirectoryAccess indicates a directory could not be created, listed,
// cleared or written. The splitter package reports the same sentinel.
var ErrDirectoryAccess = errors.New("directory access error")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the upload and output directories.
type FileManager struct {
	// UploadDir is where uploaded files are staged.
	UploadDir string

	// OutputDir is where split files are written.
	OutputDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(uploadDir, outputDir string) *FileManager {
	return &FileManager{
		UploadDir: uploadDir,
		OutputDir: outputDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.UploadDir, fm.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create directory %s: %w", ErrDirectoryAccess, dir, err)
		}
	}
	return nil
}

// ClearAll empties the upload and output directories.
func (fm *FileManager) ClearAll() error {
	return errors.Join(ClearDirectory(fm.UploadDir), ClearDirectory(fm.OutputDir))
}

// ClearDirectory removes every regular file in dir, creating dir if it does
// not exist. Subdirectories are kept. Every file that could not be removed
// is reported; the others are still removed.
func ClearDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", ErrDirectoryAccess, dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: failed to list %s: %w", ErrDirectoryAccess, dir, err)
	}

	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("%w: error deleting %s: %w", ErrDirectoryAccess, path, err))
		}
	}

	return errors.Join(errs...)
}

// =============================================================================
// UPLOAD STAGING
// =============================================================================

// AllowedFile reports whether name has one of the AllowedExtensions.
func AllowedFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// SanitizeFilename reduces an untrusted file name to a safe base name made of
// ASCII letters, digits, '.', '-' and '_'. Whitespace becomes '_', other
// characters are dropped, and leading dots and underscores are removed. The
// result may be empty.
//
// EXAMPLE:
//   "../../etc/My Report (v2).xlsx" -> "My_Report_v2.xlsx"
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}

	return strings.TrimLeft(b.String(), "._")
}

// StageUpload copies an uploaded file into the upload directory under its
// sanitized name and returns the staged path. Names that lose their stem or
// extension when sanitized get a random stem.
func (fm *FileManager) StageUpload(name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	safe := SanitizeFilename(name)
	if !strings.EqualFold(filepath.Ext(safe), ext) || strings.TrimSuffix(safe, filepath.Ext(safe)) == "" {
		safe = uuid.New().String() + ext
	}

	if err := os.MkdirAll(fm.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory %s: %w", ErrDirectoryAccess, fm.UploadDir, err)
	}

	path := filepath.Join(fm.UploadDir, safe)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", path, err)
	}

	return path, nil
}

// =============================================================================
// OUTPUT DISCOVERY
// =============================================================================

// ListOutputFiles returns the base names of the regular files in the output
// directory that end with ext, in natural order so that part 10 follows
// part 9.
func (fm *FileManager) ListOutputFiles(ext string) ([]string, error) {
	entries, err := os.ReadDir(fm.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrDirectoryAccess, fm.OutputDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(strings.ToLower(entry.Name()), ext) {
			names = append(names, entry.Name())
		}
	}

	natsort.Sort(names)
	return names, nil
}

// OutputPath resolves a base name inside the output directory. Names that
// are not plain base names are rejected.
func (fm *FileManager) OutputPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(fm.OutputDir, name), nil
}

// =============================================================================
// ARCHIVES
// =============================================================================

// WriteArchive writes a ZIP archive containing each of paths, stored under
// its base name, to w.
func WriteArchive(w io.Writer, paths []string) error {
	zw := zip.NewWriter(w)

	for _, path := range paths {
		if err := addToArchive(zw, path); err != nil {
			zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// addToArchive copies one file into the archive.
func addToArchive(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build archive header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", path, err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", path, err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// FormatSize renders a byte count for display, e.g. "1.2 MB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
