package addons

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// MaxBackupsPerAddon is the maximum number of backups to keep per addon
	MaxBackupsPerAddon = 3
	// BackupTimestampFormat is the format used for backup directory names
	BackupTimestampFormat = "20060102-150405"
)

// BackupManager snapshots addon artifacts before they are deleted.
// A backup mirrors the artifacts' paths relative to the game directory, so
// restoring one copies the tree straight back over the game directory.
type BackupManager struct {
	fs        afero.Fs
	backupDir string
	gameDir   string
	now       func() time.Time
}

// NewBackupManager creates a new backup manager storing backups under dataDir/backups
func NewBackupManager(fs afero.Fs, dataDir, gameDir string) *BackupManager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &BackupManager{
		fs:        fs,
		backupDir: filepath.Join(dataDir, "backups"),
		gameDir:   gameDir,
		now:       time.Now,
	}
}

// Dir returns the root of all backups
func (bm *BackupManager) Dir() string {
	return bm.backupDir
}

// CreateBackup copies the given files and directories, which must live under
// the game directory, into a new timestamped backup of nickname.
func (bm *BackupManager) CreateBackup(nickname string, artifacts []string) (string, error) {
	if len(artifacts) == 0 {
		return "", fmt.Errorf("nothing to back up for %s", nickname)
	}

	addonBackupDir := filepath.Join(bm.backupDir, nickname)
	if err := bm.fs.MkdirAll(addonBackupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := bm.nextBackupPath(addonBackupDir)
	if err != nil {
		return "", err
	}

	for _, artifact := range artifacts {
		rel, err := filepath.Rel(bm.gameDir, artifact)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			_ = bm.fs.RemoveAll(backupPath)
			return "", fmt.Errorf("artifact %s is outside the game directory", artifact)
		}

		if err := bm.copyPath(artifact, filepath.Join(backupPath, rel)); err != nil {
			// Cleanup on failure
			_ = bm.fs.RemoveAll(backupPath)
			return "", fmt.Errorf("failed to backup %s: %w", nickname, err)
		}
	}

	if err := bm.cleanupOldBackups(nickname); err != nil {
		return backupPath, fmt.Errorf("backup created but failed to cleanup old backups: %w", err)
	}

	return backupPath, nil
}

// nextBackupPath returns a timestamped path that does not exist yet
func (bm *BackupManager) nextBackupPath(addonBackupDir string) (string, error) {
	timestamp := bm.now().Format(BackupTimestampFormat)
	candidate := filepath.Join(addonBackupDir, timestamp)
	for i := 1; ; i++ {
		exists, err := afero.Exists(bm.fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(addonBackupDir, fmt.Sprintf("%s-%d", timestamp, i))
	}
}

// RestoreBackup copies a backup of nickname back over the game directory.
// An empty timestamp restores the latest backup.
func (bm *BackupManager) RestoreBackup(nickname, timestamp string) (string, error) {
	if timestamp == "" {
		latest, err := bm.GetLatestBackup(nickname)
		if err != nil {
			return "", err
		}
		timestamp = latest
	}

	backupPath := filepath.Join(bm.backupDir, nickname, timestamp)
	if ok, _ := afero.DirExists(bm.fs, backupPath); !ok {
		return "", fmt.Errorf("backup not found: %s", timestamp)
	}

	if err := bm.copyPath(backupPath, bm.gameDir); err != nil {
		return "", fmt.Errorf("failed to restore backup: %w", err)
	}

	return timestamp, nil
}

// ListBackups lists all available backups for an addon, newest first
func (bm *BackupManager) ListBackups(nickname string) ([]string, error) {
	addonBackupDir := filepath.Join(bm.backupDir, nickname)

	entries, err := afero.ReadDir(bm.fs, addonBackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() {
			backups = append(backups, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	return backups, nil
}

// GetLatestBackup returns the most recent backup for an addon
func (bm *BackupManager) GetLatestBackup(nickname string) (string, error) {
	backups, err := bm.ListBackups(nickname)
	if err != nil {
		return "", err
	}

	if len(backups) == 0 {
		return "", fmt.Errorf("no backups found for %s", nickname)
	}

	return backups[0], nil
}

// DeleteBackup deletes a specific backup
func (bm *BackupManager) DeleteBackup(nickname, timestamp string) error {
	return bm.fs.RemoveAll(filepath.Join(bm.backupDir, nickname, timestamp))
}

// cleanupOldBackups removes old backups exceeding MaxBackupsPerAddon
func (bm *BackupManager) cleanupOldBackups(nickname string) error {
	backups, err := bm.ListBackups(nickname)
	if err != nil {
		return err
	}

	if len(backups) <= MaxBackupsPerAddon {
		return nil
	}

	for _, backup := range backups[MaxBackupsPerAddon:] {
		if err := bm.DeleteBackup(nickname, backup); err != nil {
			return err
		}
	}

	return nil
}

// copyPath copies a file or a directory tree from src to dst
func (bm *BackupManager) copyPath(src, dst string) error {
	info, err := bm.fs.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return bm.copyFile(src, dst, info.Mode())
	}

	return afero.Walk(bm.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return bm.fs.MkdirAll(target, 0755)
		}
		return bm.copyFile(p, target, info.Mode())
	})
}

func (bm *BackupManager) copyFile(src, dst string, mode os.FileMode) error {
	if err := bm.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	srcFile, err := bm.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := bm.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
