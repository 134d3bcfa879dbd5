package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/dlang-community/serve-d-launcher/internal/platform"
)

// Format is the archive container a release ships in. Exactly two exist:
// zip for windows builds, xz-compressed tar for everything else.
type Format int

const (
	FormatTarXz Format = iota
	FormatZip
)

// FormatFor returns the archive format published for the given platform.
func FormatFor(osToken platform.OS) Format {
	if osToken == platform.OSWindows {
		return FormatZip
	}
	return FormatTarXz
}

// Ext returns the filename extension used in download URLs.
func (f Format) Ext() string {
	if f == FormatZip {
		return "zip"
	}
	return "tar.xz"
}

// Unpack extracts the archive bytes into dir, preserving entry paths.
// Extraction failures are fatal and may leave dir partially populated;
// no cleanup is attempted.
func (f Format) Unpack(data []byte, dir string) error {
	if f == FormatZip {
		return unpackZip(data, dir)
	}
	return unpackTarXz(data, dir)
}

func unpackZip(data []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("installer: open zip archive: %w", err)
	}

	for _, entry := range zr.File {
		target, err := entryTarget(dir, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("installer: mkdir %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("installer: mkdir for %s: %w", target, err)
		}

		mode := entry.Mode()
		if mode.Perm() == 0 {
			// Archives built on Windows often carry no permission bits.
			mode = 0o755
		}

		src, err := entry.Open()
		if err != nil {
			return fmt.Errorf("installer: open zip entry %s: %w", entry.Name, err)
		}
		err = writeEntry(target, src, mode)
		src.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func unpackTarXz(data []byte, dir string) error {
	xzr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("installer: open xz stream: %w", err)
	}

	tr := tar.NewReader(xzr)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("installer: read tar entry: %w", err)
		}

		target, err := entryTarget(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("installer: mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("installer: mkdir for %s: %w", target, err)
			}
			if err := writeEntry(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("installer: symlink %s: %w", target, err)
			}
		default:
			return fmt.Errorf("installer: unsupported tar entry %q", header.Name)
		}
	}

	return nil
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("installer: create %s: %w", target, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("installer: write %s: %w", target, err)
	}
	return f.Close()
}

// entryTarget joins an archive entry path onto the destination directory,
// rejecting entries that would escape it.
func entryTarget(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))

	root := filepath.Clean(dir)
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("installer: illegal archive path %q", name)
	}
	return target, nil
}
