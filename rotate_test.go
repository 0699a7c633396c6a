// FILE: lixenwraith/logpipe/rotate_test.go
package logpipe

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRotator prepares an output file with content and a rotator for it
func createTestRotator(t *testing.T, content string) (*Rotator, string) {
	t.Helper()
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "log.txt")
	if content != "" {
		require.NoError(t, os.WriteFile(outputPath, []byte(content), 0644))
	}

	return &Rotator{
		OutputPath:      outputPath,
		BackupEnabled:   true,
		BackupDirectory: filepath.Join(tmpDir, "backups"),
		Compress:        true,
	}, tmpDir
}

func rotationTime() time.Time {
	return time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
}

func TestBackupName(t *testing.T) {
	assert.Equal(t, "log_05032024_140709", BackupName("/var/log/log.txt", rotationTime()))
	assert.Equal(t, "app.server_05032024_140709", BackupName("app.server.log", rotationTime()))
	assert.Equal(t, "noext_05032024_140709", BackupName("noext", rotationTime()))
}

func TestRotateCompressed(t *testing.T) {
	r, _ := createTestRotator(t, "line one\nline two\n")

	backup, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.BackupDirectory, "log_05032024_140709.zip"), backup)

	_, err = os.Stat(r.OutputPath)
	assert.True(t, os.IsNotExist(err), "original is removed after backup")

	zr, err := zip.OpenReader(backup)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1, "archive holds a single entry")
	assert.Equal(t, "log.txt", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))

	// No temporary files left behind
	entries, err := os.ReadDir(r.BackupDirectory)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRotateUncompressed(t *testing.T) {
	r, _ := createTestRotator(t, "plain backup\n")
	r.Compress = false

	backup, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.BackupDirectory, "log_05032024_140709.txt"), backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "plain backup\n", string(data))

	_, err = os.Stat(r.OutputPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRotateWithoutBackup(t *testing.T) {
	r, _ := createTestRotator(t, "discarded\n")
	r.BackupEnabled = false

	backup, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	assert.Empty(t, backup)

	_, err = os.Stat(r.OutputPath)
	assert.True(t, os.IsNotExist(err), "previous output is deleted")
	_, err = os.Stat(r.BackupDirectory)
	assert.True(t, os.IsNotExist(err), "no backup directory is created")
}

func TestRotateNothingToDo(t *testing.T) {
	r, _ := createTestRotator(t, "")

	backup, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	assert.Empty(t, backup)

	_, err = os.Stat(r.BackupDirectory)
	assert.True(t, os.IsNotExist(err))
}

func TestRotateNameCollision(t *testing.T) {
	r, _ := createTestRotator(t, "first\n")

	first, err := r.Rotate(rotationTime())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(r.OutputPath, []byte("second\n"), 0644))
	second, err := r.Rotate(rotationTime())
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "an existing backup is never overwritten")
	assert.Equal(t, filepath.Join(r.BackupDirectory, "log_05032024_140709_1.zip"), second)

	entries, err := os.ReadDir(r.BackupDirectory)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRotateOutputIsDirectory(t *testing.T) {
	r, tmpDir := createTestRotator(t, "")
	r.OutputPath = tmpDir

	_, err := r.Rotate(rotationTime())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestPrune(t *testing.T) {
	r, _ := createTestRotator(t, "")
	r.MaxBackups = 2
	require.NoError(t, os.MkdirAll(r.BackupDirectory, 0755))

	base := time.Now().Add(-time.Hour)
	names := []string{
		"log_01012024_000000.zip",
		"log_02012024_000000.txt",
		"log_03012024_000000.zip",
		"log_04012024_000000.zip",
	}
	for i, name := range names {
		path := filepath.Join(r.BackupDirectory, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mod := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mod, mod))
	}

	// Unrelated files are never touched, even when older
	foreign := []string{
		"other_01012024_000000.zip",
		"log_notes.md",
		"log_v2_01012020_000000.zip", // backup of log_v2.txt
		"log_01012020_000000.zip.tmp",
	}
	oldest := base.Add(-24 * time.Hour)
	for _, name := range foreign {
		path := filepath.Join(r.BackupDirectory, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, oldest, oldest))
	}

	removed, err := r.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := os.ReadDir(r.BackupDirectory)
	require.NoError(t, err)
	var remaining []string
	for _, e := range entries {
		remaining = append(remaining, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"log_03012024_000000.zip",
		"log_04012024_000000.zip",
		"other_01012024_000000.zip",
		"log_notes.md",
		"log_v2_01012020_000000.zip",
		"log_01012020_000000.zip.tmp",
	}, remaining)
}

func TestPruneKeepsCollisionSuffixedBackups(t *testing.T) {
	r, _ := createTestRotator(t, "")
	r.OutputPath = filepath.Join(filepath.Dir(r.OutputPath), "app.log")
	r.MaxBackups = 1
	require.NoError(t, os.MkdirAll(r.BackupDirectory, 0755))

	old := time.Now().Add(-time.Hour)
	for _, name := range []string{"app_v2_01012020_000000.zip", "app_01012020_000000.zip"} {
		path := filepath.Join(r.BackupDirectory, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, old, old))
	}

	require.NoError(t, os.WriteFile(r.OutputPath, []byte("current\n"), 0644))
	first, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(r.OutputPath, []byte("again\n"), 0644))
	second, err := r.Rotate(rotationTime())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.BackupDirectory, "app_05032024_140709_1.zip"), second)

	// Make the collision-suffixed backup the newest
	newer := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(second, newer, newer))

	removed, err := r.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = os.Stat(second)
	assert.NoError(t, err, "newest backup kept")
	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(r.BackupDirectory, "app_v2_01012020_000000.zip"))
	assert.NoError(t, err, "another log's backup is never pruned")
}

func TestPruneUnlimited(t *testing.T) {
	r, _ := createTestRotator(t, "")
	require.NoError(t, os.MkdirAll(r.BackupDirectory, 0755))
	for _, name := range []string{"log_a.zip", "log_b.zip", "log_c.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(r.BackupDirectory, name), []byte("x"), 0644))
	}

	removed, err := r.Prune()
	require.NoError(t, err)
	assert.Zero(t, removed, "max_backups=0 keeps every backup")
}

func TestStartPrunesBackups(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "svc.txt")
	backupDir := filepath.Join(tmpDir, "backups")

	p := NewPipeline()
	require.NoError(t, p.ApplyConfigString(
		"output_path="+outputPath,
		"backup_directory="+backupDir,
		"max_backups=2",
		"enable_threaded_writer=false",
	))

	// Pre-existing older backups
	require.NoError(t, os.MkdirAll(backupDir, 0755))
	old := time.Now().Add(-24 * time.Hour)
	for _, name := range []string{"svc_01012020_000000.zip", "svc_02012020_000000.zip"} {
		path := filepath.Join(backupDir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, old, old))
	}

	require.NoError(t, os.WriteFile(outputPath, []byte("previous run\n"), 0644))
	require.NoError(t, p.Start())
	defer p.Stop()

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "svc_02012020_000000.zip")
	assert.NotContains(t, names, "svc_01012020_000000.zip", "oldest backup pruned")
	assert.Equal(t, uint64(1), p.Stats().Backups)
}
