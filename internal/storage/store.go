package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/fieldsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var frameHeader = []string{"frame", "body", "x", "y", "z", "vx", "vy", "radius", "alpha", "dragging", "label", "glyph"}

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
	ID          string             `json:"id"`
	Mode        string             `json:"mode"`
	Preset      string             `json:"preset,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Count       int                `json:"count"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	FPS         int                `json:"fps"`
	Frames      uint64             `json:"frames"`
	SampleEvery int                `json:"sample_every"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// NewRunID returns "<mode>_<8 hex digits>".
func NewRunID(mode string) string {
	return fmt.Sprintf("%s_%s", mode, uuid.NewString()[:8])
}

// Save writes the run under a fresh ID and returns it. meta.ID, Timestamp,
// Frames, Metrics and Errors are filled from result.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	meta.ID = NewRunID(meta.Mode)
	meta.Timestamp = time.Now()
	meta.Frames = result.Frames
	meta.Metrics = result.Metrics
	meta.Errors = nil
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, result.Snapshots); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}
	return meta.ID, nil
}

// WriteFramesCSV writes one row per body per sampled frame.
func WriteFramesCSV(out io.Writer, snapshots []dynamo.Snapshot) error {
	w := csv.NewWriter(out)
	if err := w.Write(frameHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, snap := range snapshots {
		for i, b := range snap.Bodies {
			glyph := ""
			if b.Glyph != 0 {
				glyph = string(b.Glyph)
			}
			row := []string{
				strconv.FormatUint(snap.Frame, 10),
				strconv.Itoa(i),
				f(b.Pos.X), f(b.Pos.Y), f(b.Z),
				f(b.Vel.X), f(b.Vel.Y),
				f(b.Radius), f(b.Alpha),
				strconv.FormatBool(b.Dragging),
				b.Label,
				glyph,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads the sampled snapshots of a run back. Colours are not
// stored and come back zero.
func (s *Store) LoadFrames(runID string) ([]dynamo.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(frameHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.Snapshot{}, nil
	}

	snaps := make([]dynamo.Snapshot, 0)
	for line, rec := range records[1:] {
		frame, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
		}

		var vals [7]float64
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[2+j], 64); err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
		}
		dragging, _ := strconv.ParseBool(rec[9])

		b := dynamo.Body{
			Pos:      dynamo.Vec{X: vals[0], Y: vals[1]},
			Z:        vals[2],
			Vel:      dynamo.Vec{X: vals[3], Y: vals[4]},
			Radius:   vals[5],
			Alpha:    vals[6],
			Dragging: dragging,
			Label:    rec[10],
		}
		if g := []rune(rec[11]); len(g) > 0 {
			b.Glyph = g[0]
		}

		if n := len(snaps); n == 0 || snaps[n-1].Frame != frame {
			snaps = append(snaps, dynamo.Snapshot{Frame: frame})
		}
		last := &snaps[len(snaps)-1]
		last.Bodies = append(last.Bodies, b)
	}
	return snaps, nil
}
