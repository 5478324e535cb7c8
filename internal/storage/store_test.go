package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/scenario"
	"github.com/san-kum/rigidsim/internal/world"
)

func testResult() *scenario.Result {
	state := func(y float64, sleeping bool) dynamo.BodyState {
		return dynamo.BodyState{ID: 2, Pose: dynamo.At(mgl64.Vec3{0, y, 0}), Mass: 1, Sleeping: sleeping}
	}
	return &scenario.Result{
		Scenario: "drop",
		Times:    []float64{0, 0.5, 1},
		Tracked:  []dynamo.Handle{2},
		Frames: [][]dynamo.BodyState{
			{state(5, false)},
			{state(3.75, false)},
			{state(0.5, true)},
		},
		Metrics: map[string]float64{"settle_time": 1},
		Stats:   world.Stats{Frames: 60, Substeps: 60},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Profile: "desktop", Seed: 42, Dt: 1.0 / 60, Duration: 1}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", runID, err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scenario != "drop" {
		t.Errorf("expected scenario 'drop', got '%s'", meta.Scenario)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["settle_time"] != 1 {
		t.Errorf("expected settle_time 1, got %f", meta.Metrics["settle_time"])
	}
	if meta.Stats.Frames != 60 {
		t.Errorf("expected 60 frames in stats, got %d", meta.Stats.Frames)
	}
	if len(meta.Bodies) != 1 || meta.Bodies[0] != 2 {
		t.Errorf("expected tracked body 2, got %v", meta.Bodies)
	}
}

func TestLoadSeries(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tests := []struct {
		column string
		want   []float64
	}{
		{Column(2, "y"), []float64{5, 3.75, 0.5}},
		{Column(2, "qw"), []float64{1, 1, 1}},
		{Column(2, "sleeping"), []float64{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			times, values, err := st.LoadSeries(runID, tt.column)
			if err != nil {
				t.Fatalf("load series failed: %v", err)
			}
			if len(times) != 3 || times[1] != 0.5 {
				t.Errorf("unexpected times %v", times)
			}
			for i, v := range tt.want {
				if values[i] != v {
					t.Errorf("value %d: expected %v, got %v", i, v, values[i])
				}
			}
		})
	}

	if _, _, err := st.LoadSeries(runID, "b9_y"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(RunMetadata{}, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestUnknownRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("expected ErrUnknownRun, got %v", err)
	}
	if _, _, err := st.LoadSeries("nope", "time"); !errors.Is(err, ErrUnknownRun) {
		t.Errorf("expected ErrUnknownRun, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{metadataFile, posesFile} {
		if _, err := os.Stat(filepath.Join(st.baseDir, runID, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
