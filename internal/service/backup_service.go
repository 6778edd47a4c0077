package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/progress"
	"github.com/sitrack/sitrack-gin/internal/repository"
)

// ErrBackupNotFound is returned for unknown backup filenames.
var ErrBackupNotFound = errors.New("backup not found")

// backupArchive is the on-disk backup format: a single JSON document
// with the full user directory and report set.
type backupArchive struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	Users     []*model.User  `json:"users"`
	Reports   []*model.Report `json:"reports"`
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// BackupService exports and restores the application data as JSON
// archives in a local directory.
type BackupService struct {
	users     repository.UserRepository
	reports   repository.ReportRepository
	backupDir string
	log       *logrus.Logger
}

func NewBackupService(users repository.UserRepository, reports repository.ReportRepository, backupDir string, log *logrus.Logger) *BackupService {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		// Fall back to a writable location rather than failing startup.
		backupDir = filepath.Join(os.TempDir(), "sitrack-backups")
		_ = os.MkdirAll(backupDir, 0o755)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BackupService{users: users, reports: reports, backupDir: backupDir, log: log}
}

// Create writes a new backup archive and returns its description.
func (s *BackupService) Create(ctx context.Context) (*BackupInfo, error) {
	users, err := s.users.FindAll()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	reports, err := s.reports.FindAll()
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	archive := backupArchive{
		Version:   1,
		CreatedAt: time.Now(),
		Users:     users,
		Reports:   reports,
	}

	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}

	filename := fmt.Sprintf("sitrack_%s.json", archive.CreatedAt.Format("20060102_150405"))
	path := filepath.Join(s.backupDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"filename": filename,
		"users":    len(users),
		"reports":  len(reports),
	}).Info("backup created")

	return &BackupInfo{
		Filename:  filename,
		Size:      int64(len(data)),
		CreatedAt: archive.CreatedAt,
	}, nil
}

// List returns available backups, newest first.
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  entry.Name(),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore replays a backup archive into the database. Rows are
// upserted by id; rows created after the backup are left alone.
func (s *BackupService) Restore(ctx context.Context, filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	var archive backupArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}

	for _, user := range archive.Users {
		if err := s.users.Save(user); err != nil {
			return fmt.Errorf("restore user %s: %w", user.ID, err)
		}
	}
	for _, report := range archive.Reports {
		progress.Derive(report)
		if err := s.reports.Save(report); err != nil {
			return fmt.Errorf("restore report %s: %w", report.ID, err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"filename": filename,
		"users":    len(archive.Users),
		"reports":  len(archive.Reports),
	}).Info("backup restored")

	return nil
}

// Delete removes a backup file.
func (s *BackupService) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// Prune removes backups older than the retention window. Zero or
// negative retention keeps everything.
func (s *BackupService) Prune(retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	backups, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, b := range backups {
		if b.CreatedAt.Before(cutoff) {
			if err := s.Delete(b.Filename); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// resolve validates the filename and refuses path escapes.
func (s *BackupService) resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".json") {
		return "", ErrBackupNotFound
	}
	path := filepath.Join(s.backupDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrBackupNotFound
	}
	return path, nil
}
