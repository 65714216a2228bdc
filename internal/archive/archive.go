// Package archive checks, unpacks and links downloaded component archives.
package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/mholt/archiver/v3"
	"github.com/pkg/errors"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
)

// Validate reads every entry of the archive at path to the end. A
// truncated or corrupt archive returns an Extraction error.
func Validate(path string) error {
	entries := 0
	err := archiver.Walk(path, func(f archiver.File) error {
		entries++
		if f.IsDir() {
			return nil
		}
		if _, err := io.Copy(io.Discard, f); err != nil {
			return errors.Wrapf(err, "reading %s", f.Name())
		}
		return nil
	})
	if err != nil {
		return install.Wrap(install.Extraction, "validate "+filepath.Base(path), err)
	}
	if entries == 0 {
		return install.Errorf(install.Extraction, "", "archive %s is empty", path)
	}
	return nil
}

// Extract unpacks archivePath into installDir/dirName. An existing
// destination is left untouched. The archive is unpacked into a staging
// directory beside the destination and renamed into place, so a failed or
// interrupted extraction never leaves a partial destination. On failure
// the archive itself is removed so the next run fetches it again.
func Extract(ctx context.Context, archivePath, installDir, dirName string) (string, error) {
	dest := filepath.Join(installDir, dirName)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(installDir, 0755); err != nil {
		return "", install.Wrap(install.Extraction, "create "+installDir, err)
	}
	staging, err := os.MkdirTemp(installDir, ".extract-"+dirName+"-")
	if err != nil {
		return "", install.Wrap(install.Extraction, "create staging dir", err)
	}
	defer os.RemoveAll(staging)

	if err := unarchive(archivePath, staging); err != nil {
		os.Remove(archivePath)
		return "", install.WithHint(
			install.Wrap(install.Extraction, "extract "+filepath.Base(archivePath), err),
			"the archive was removed; re-run the installer to download it again",
		)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	root, err := topLevel(staging)
	if err != nil {
		return "", install.Wrap(install.Extraction, "extract "+filepath.Base(archivePath), err)
	}
	if err := os.Rename(root, dest); err != nil {
		return "", install.Wrap(install.Extraction, "move into "+dest, errors.WithStack(err))
	}
	return dest, nil
}

func unarchive(archivePath, dest string) error {
	format, err := archiver.ByExtension(archivePath)
	if err != nil {
		return errors.Wrapf(err, "unsupported archive %s", archivePath)
	}
	u, ok := format.(archiver.Unarchiver)
	if !ok {
		return errors.Errorf("format of %s cannot be extracted", archivePath)
	}
	if tgz, ok := u.(*archiver.TarGz); ok {
		tgz.OverwriteExisting = true
		tgz.MkdirAll = true
	}
	return u.Unarchive(archivePath, dest)
}

// topLevel returns the single directory an archive unpacked into, or dir
// itself when the archive had several top-level entries.
func topLevel(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(entries) == 0 {
		return "", errors.New("archive produced no files")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

// Link points link at target, replacing a symlink that points elsewhere.
// A real file or directory at link is an error.
func Link(target, link string) error {
	current, err := os.Readlink(link)
	switch {
	case err == nil && current == target:
		return nil
	case err == nil:
		if err := os.Remove(link); err != nil {
			return errors.Wrapf(err, "replacing link %s", link)
		}
	case os.IsNotExist(err):
	default:
		if _, statErr := os.Lstat(link); statErr == nil {
			return install.Errorf(install.Configuration, "move "+link+" aside and re-run",
				"%s exists and is not a symlink", link)
		}
		return errors.Wrapf(err, "reading link %s", link)
	}

	if err := os.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return errors.WithStack(err)
	}
	return errors.Wrapf(os.Symlink(target, link), "linking %s -> %s", link, target)
}
