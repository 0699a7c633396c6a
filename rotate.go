// FILE: lixenwraith/logpipe/rotate.go
package logpipe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// maxNameAttempts bounds the collision counter appended to backup names
const maxNameAttempts = 1000

// Rotator preserves or removes a previous output file before a new one is opened
type Rotator struct {
	OutputPath      string
	BackupEnabled   bool
	BackupDirectory string
	Compress        bool
	MaxBackups      int
}

// NewRotator builds a rotator from the pipeline configuration
func NewRotator(cfg *Config) *Rotator {
	return &Rotator{
		OutputPath:      cfg.OutputPath,
		BackupEnabled:   cfg.BackupEnabled,
		BackupDirectory: cfg.BackupDirectory,
		Compress:        cfg.CompressBackups,
		MaxBackups:      int(cfg.MaxBackups),
	}
}

// Rotate moves an existing output file out of the way.
// Returns the backup artifact path, or "" when nothing was backed up.
// Any filesystem error is returned; the output file is left in place in that case.
func (r *Rotator) Rotate(now time.Time) (string, error) {
	info, err := os.Stat(r.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmtErrorf("failed to stat output file '%s': %w", r.OutputPath, err)
	}
	if info.IsDir() {
		return "", fmtErrorf("output path '%s' is a directory", r.OutputPath)
	}

	if !r.BackupEnabled {
		if err := os.Remove(r.OutputPath); err != nil {
			return "", fmtErrorf("failed to remove previous output file '%s': %w", r.OutputPath, err)
		}
		return "", nil
	}

	if err := os.MkdirAll(r.BackupDirectory, 0755); err != nil {
		return "", fmtErrorf("failed to create backup directory '%s': %w", r.BackupDirectory, err)
	}

	ext := backupTxtExt
	if r.Compress {
		ext = backupZipExt
	}
	backupPath, err := r.uniqueBackupPath(now, ext)
	if err != nil {
		return "", err
	}

	if r.Compress {
		err = zipFile(r.OutputPath, backupPath, info)
	} else {
		err = copyFile(r.OutputPath, backupPath)
	}
	if err != nil {
		return "", err
	}

	if err := os.Remove(r.OutputPath); err != nil {
		return backupPath, fmtErrorf("backup written to '%s' but failed to remove '%s': %w", backupPath, r.OutputPath, err)
	}
	return backupPath, nil
}

// BackupName returns "<basename-without-extension>_<DDMMYYYY_HHMMSS>" for an output path
func BackupName(outputPath string, now time.Time) string {
	return backupPrefix(outputPath) + now.Format(backupTimeLayout)
}

// backupPrefix returns "<basename-without-extension>_"
func backupPrefix(outputPath string) string {
	base := filepath.Base(outputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_"
}

// uniqueBackupPath appends a counter when a backup with the same second already exists
func (r *Rotator) uniqueBackupPath(now time.Time, ext string) (string, error) {
	name := BackupName(r.OutputPath, now)
	candidate := filepath.Join(r.BackupDirectory, name+ext)
	for i := 1; i < maxNameAttempts; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmtErrorf("failed to stat backup candidate '%s': %w", candidate, err)
		}
		candidate = filepath.Join(r.BackupDirectory, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
	return "", fmtErrorf("no free backup name for '%s' in '%s'", name, r.BackupDirectory)
}

// Prune deletes the oldest backup artifacts of this output file beyond MaxBackups.
// Returns the number of files removed.
func (r *Rotator) Prune() (int, error) {
	if !r.BackupEnabled || r.MaxBackups <= 0 {
		return 0, nil
	}

	backups, err := r.listBackups()
	if err != nil {
		return 0, err
	}
	if len(backups) <= r.MaxBackups {
		return 0, nil
	}

	var removed int
	var finalErr error
	for _, b := range backups[:len(backups)-r.MaxBackups] {
		path := filepath.Join(r.BackupDirectory, b.name)
		if err := os.Remove(path); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to remove old backup '%s': %w", path, err))
			continue
		}
		removed++
	}
	return removed, finalErr
}

type backupMeta struct {
	name    string
	modTime time.Time
}

// listBackups returns this output file's backups, oldest first
func (r *Rotator) listBackups() ([]backupMeta, error) {
	entries, err := os.ReadDir(r.BackupDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read backup directory '%s': %w", r.BackupDirectory, err)
	}

	// Names of other logs sharing the prefix ("app_v2_..." for "app") must not match
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(backupPrefix(r.OutputPath)) +
		`\d{8}_\d{6}(_\d+)?\.(zip|txt)$`)

	var backups []backupMeta
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !pattern.MatchString(name) {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		backups = append(backups, backupMeta{name: name, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].name < backups[j].name
		}
		return backups[i].modTime.Before(backups[j].modTime)
	})
	return backups, nil
}

// zipFile writes src as the single entry of a new zip archive at dst.
// The archive is built under a temporary name and renamed into place once complete.
func zipFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmtErrorf("failed to open '%s' for archiving: %w", src, err)
	}
	defer in.Close()

	return writeAtomically(dst, func(out io.Writer) error {
		zw := zip.NewWriter(out)

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmtErrorf("failed to build zip header for '%s': %w", src, err)
		}
		hdr.Name = filepath.Base(src)
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmtErrorf("failed to create zip entry '%s': %w", hdr.Name, err)
		}
		if _, err := io.Copy(w, in); err != nil {
			return fmtErrorf("failed to compress '%s': %w", src, err)
		}
		if err := zw.Close(); err != nil {
			return fmtErrorf("failed to finalize archive '%s': %w", dst, err)
		}
		return nil
	})
}

// copyFile copies src to dst through a temporary file
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmtErrorf("failed to open '%s' for backup: %w", src, err)
	}
	defer in.Close()

	return writeAtomically(dst, func(out io.Writer) error {
		if _, err := io.Copy(out, in); err != nil {
			return fmtErrorf("failed to copy '%s': %w", src, err)
		}
		return nil
	})
}

// writeAtomically runs fill against "<dst>.tmp", syncs it, then renames it to dst.
// The temporary file is removed on any failure.
func writeAtomically(dst string, fill func(io.Writer) error) error {
	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmtErrorf("failed to create backup file '%s': %w", tmp, err)
	}

	if err := fill(out); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmtErrorf("failed to sync backup file '%s': %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmtErrorf("failed to close backup file '%s': %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmtErrorf("failed to rename '%s' to '%s': %w", tmp, dst, err)
	}
	return nil
}
