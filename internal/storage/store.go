// Package storage records scenario runs on disk: one directory per run with
// a metadata.json and a poses.csv of the tracked bodies.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/scenario"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	metadataFile = "metadata.json"
	posesFile    = "poses.csv"
)

var ErrUnknownRun = errors.New("unknown run")

// poseColumns are written for every tracked body, prefixed with its handle.
var poseColumns = []string{"x", "y", "z", "qw", "qx", "qy", "qz", "sleeping"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Profile   string             `json:"profile"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Bodies    []dynamo.Handle    `json:"bodies"`
	Metrics   map[string]float64 `json:"metrics"`
	Stats     world.Stats        `json:"stats"`
}

// Column names the poses.csv column of field for body h, e.g. "b2_y".
func Column(h dynamo.Handle, field string) string {
	return fmt.Sprintf("b%d_%s", h, field)
}

// Save writes result under a fresh run id. Caller-supplied Scenario, Profile,
// Seed, Dt and Duration are kept; everything else is filled from result.
func (s *Store) Save(meta RunMetadata, result *scenario.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	meta.Bodies = result.Tracked
	meta.Metrics = result.Metrics
	meta.Stats = result.Stats
	if meta.Scenario == "" {
		meta.Scenario = result.Scenario
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writePoses(filepath.Join(runDir, posesFile), result); err != nil {
		return "", fmt.Errorf("write poses: %w", err)
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePoses(path string, result *scenario.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"time"}
	for _, h := range result.Tracked {
		for _, c := range poseColumns {
			header = append(header, Column(h, c))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, states := range result.Frames {
		row := []string{formatFloat(result.Times[i])}
		for _, st := range states {
			p, q := st.Pose.Position, st.Pose.Orientation
			row = append(row,
				formatFloat(p.X()), formatFloat(p.Y()), formatFloat(p.Z()),
				formatFloat(q.W), formatFloat(q.V.X()), formatFloat(q.V.Y()), formatFloat(q.V.Z()),
				strconv.FormatBool(st.Sleeping))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads one poses.csv column. Sleeping columns read as 0 or 1.
func (s *Store) LoadSeries(runID, column string) (times, values []float64, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, posesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
		}
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read poses %s: %w", runID, err)
	}
	if len(records) == 0 {
		return []float64{}, []float64{}, nil
	}

	col := -1
	for i, name := range records[0] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, nil, fmt.Errorf("run %s has no column %q", runID, column)
	}

	times = make([]float64, 0, len(records)-1)
	values = make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse time %q: %w", record[0], err)
		}
		v, err := parseCell(record[col])
		if err != nil {
			return nil, nil, fmt.Errorf("parse %s %q: %w", column, record[col], err)
		}
		times = append(times, t)
		values = append(values, v)
	}
	return times, values, nil
}

func parseCell(s string) (float64, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
