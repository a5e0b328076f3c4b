package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ZipExtractor unpacks zip archives onto a filesystem
type ZipExtractor struct {
	fs afero.Fs
}

// NewZipExtractor creates an extractor writing to fs, the OS filesystem when nil
func NewZipExtractor(fs afero.Fs) *ZipExtractor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ZipExtractor{fs: fs}
}

// Extract writes every file entry of the archive under destDir and returns
// their paths relative to destDir, with forward slashes. Directory entries are
// created but not returned.
//
// Archives whose files all sit in a top-level folder named like destDir are
// unpacked into the parent of destDir, so the folder is not nested twice.
func (z *ZipExtractor) Extract(src io.ReaderAt, size int64, destDir string) ([]string, error) {
	reader, err := zip.NewReader(src, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	root := destDir
	prefix := ""
	if hasLeadingFolder(reader.File, filepath.Base(destDir)) {
		prefix = filepath.Base(destDir) + "/"
		root = filepath.Dir(destDir)
	}

	if err := z.fs.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	var written []string
	for _, file := range reader.File {
		name := strings.ReplaceAll(file.Name, "\\", "/")

		target, err := safeJoin(root, name)
		if err != nil {
			return written, err
		}

		if file.FileInfo().IsDir() {
			if err := z.fs.MkdirAll(target, 0755); err != nil {
				return written, fmt.Errorf("failed to create %s: %w", target, err)
			}
			continue
		}

		if err := z.extractFile(file, target); err != nil {
			return written, err
		}
		written = append(written, strings.TrimPrefix(name, prefix))
	}

	return written, nil
}

func (z *ZipExtractor) extractFile(file *zip.File, target string) error {
	if err := z.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
	}

	in, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file.Name, err)
	}
	defer func() { _ = in.Close() }()

	out, err := z.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// hasLeadingFolder reports whether every file entry starts with folder/
func hasLeadingFolder(files []*zip.File, folder string) bool {
	if folder == "" || folder == "." || folder == string(filepath.Separator) {
		return false
	}
	prefix := folder + "/"
	found := false
	for _, file := range files {
		if file.FileInfo().IsDir() {
			continue
		}
		if !strings.HasPrefix(strings.ReplaceAll(file.Name, "\\", "/"), prefix) {
			return false
		}
		found = true
	}
	return found
}

// safeJoin joins an archive entry name to root, rejecting names that escape it
func safeJoin(root, name string) (string, error) {
	cleaned := path.Clean("/" + name)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid archive entry %q", name)
	}
	if strings.Contains(name, "..") {
		for _, part := range strings.Split(name, "/") {
			if part == ".." {
				return "", fmt.Errorf("archive entry escapes destination: %q", name)
			}
		}
	}
	if path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
