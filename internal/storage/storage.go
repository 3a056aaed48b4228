// Package storage persists EDA analysis snapshots so a past run can be
// re-rendered without another remote call. Each snapshot is a directory
// holding a summary plus the full bundle.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/manishw7/air-quality-intelligence/internal/api"
)

type Store struct {
	snapshotsDir string
}

// SnapshotSummary is the listing row for one saved analysis.
type SnapshotSummary struct {
	Start     string   `json:"start"`
	End       string   `json:"end"`
	SavedAt   string   `json:"saved_at"`
	MeanAQI   *float64 `json:"mean_aqi"`
	Directory string   `json:"directory"`
}

// Snapshot is a saved analysis: its summary plus the bundle it rendered.
type Snapshot struct {
	Summary SnapshotSummary `json:"summary"`
	Bundle  api.EdaBundle   `json:"bundle"`
}

func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "snapshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshots dir: %w", err)
	}
	return &Store{snapshotsDir: dir}, nil
}

func (s *Store) Dir() string {
	return s.snapshotsDir
}

// Save writes one analysis run as a snapshot directory and returns its
// summary.
func (s *Store) Save(start, end string, bundle api.EdaBundle) (SnapshotSummary, error) {
	now := time.Now().UTC()
	dirName := fmt.Sprintf("%s-%s-%s", now.Format("20060102-150405"), sanitizeDate(start), sanitizeDate(end))
	dirPath := filepath.Join(s.snapshotsDir, dirName)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return SnapshotSummary{}, fmt.Errorf("create snapshot dir: %w", err)
	}

	summary := SnapshotSummary{
		Start:     start,
		End:       end,
		SavedAt:   now.Format(time.RFC3339),
		MeanAQI:   bundle.TimeSeries.Stats.Mean,
		Directory: dirPath,
	}

	if err := writeJSON(filepath.Join(dirPath, "summary.json"), summary); err != nil {
		return SnapshotSummary{}, err
	}
	snapshot := Snapshot{Summary: summary, Bundle: bundle}
	if err := writeJSON(filepath.Join(dirPath, "snapshot.json"), snapshot); err != nil {
		return SnapshotSummary{}, err
	}
	return summary, nil
}

// List returns snapshot summaries, newest first. Corrupt or foreign
// entries are skipped, not fatal.
func (s *Store) List(limit int) ([]SnapshotSummary, error) {
	entries, err := os.ReadDir(s.snapshotsDir)
	if err != nil {
		return nil, fmt.Errorf("read snapshots dir: %w", err)
	}

	summaries := make([]SnapshotSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(s.snapshotsDir, entry.Name(), "summary.json"))
		if err != nil {
			continue
		}
		var summary SnapshotSummary
		if err := json.Unmarshal(blob, &summary); err != nil {
			continue
		}
		if summary.Directory == "" {
			summary.Directory = filepath.Join(s.snapshotsDir, entry.Name())
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SavedAt > summaries[j].SavedAt
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Load reads one snapshot back by directory.
func (s *Store) Load(directory string) (*Snapshot, error) {
	dir := strings.TrimSpace(directory)
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.snapshotsDir, dir)
	}

	blob, err := os.ReadFile(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Summary.Directory == "" {
		snapshot.Summary.Directory = dir
	}
	return &snapshot, nil
}

func sanitizeDate(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return "unset"
	}
	return cleaned
}

func writeJSON(path string, value any) error {
	blob, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
