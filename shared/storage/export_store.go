package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"prospector/internal/models"
)

// ExportStore writes lead tables and run manifests to a directory.
// Every file is written to a temporary name and renamed into place, so an
// interrupted process never leaves a partial export behind.
type ExportStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// RunManifest sits next to each CSV and records what the table leaves out.
type RunManifest struct {
	RunID      string             `json:"run_id"`
	Niche      string             `json:"niche"`
	Language   string             `json:"language"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Summary    models.RunSummary  `json:"summary"`
	Table      string             `json:"table"`
	Rejections []models.Rejection `json:"rejections"`
}

func NewExportStore(dir string) (*ExportStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &ExportStore{dir: dir, now: time.Now}, nil
}

func (s *ExportStore) Dir() string {
	return s.dir
}

// Save writes content as leads_<slug>_<unix>.csv and returns the path.
// An existing file for the same niche and second is never overwritten.
func (s *ExportStore) Save(niche, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := fmt.Sprintf("leads_%s_%d", Slug(niche), s.now().Unix())
	path := filepath.Join(s.dir, base+".csv")
	for i := 2; fileExists(path); i++ {
		path = filepath.Join(s.dir, fmt.Sprintf("%s_%d.csv", base, i))
	}

	if err := writeAtomic(s.dir, path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

// SaveManifest writes the run summary and rejections beside a saved table.
func (s *ExportStore) SaveManifest(tablePath string, result *models.RunResult) (string, error) {
	manifest := RunManifest{
		RunID:      result.RunID,
		Niche:      result.Niche,
		Language:   result.Language,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Summary:    result.Summary,
		Table:      filepath.Base(tablePath),
		Rejections: result.Rejections,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run manifest: %w", err)
	}

	path := strings.TrimSuffix(tablePath, filepath.Ext(tablePath)) + ".json"
	if err := writeAtomic(s.dir, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the saved tables, oldest first.
func (s *ExportStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "leads_*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Slug lowercases a niche and replaces every run of other characters with one underscore.
func Slug(niche string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(niche) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "niche"
	}
	return b.String()
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
