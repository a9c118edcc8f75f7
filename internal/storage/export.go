package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/fieldsim/internal/dynamo"
)

type ExportBody struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z,omitempty"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Radius   float64 `json:"radius"`
	Alpha    float64 `json:"alpha"`
	Color    string  `json:"color,omitempty"`
	Label    string  `json:"label,omitempty"`
	Glyph    string  `json:"glyph,omitempty"`
	Dragging bool    `json:"dragging,omitempty"`
}

type ExportFrame struct {
	Frame  uint64       `json:"frame"`
	Bodies []ExportBody `json:"bodies"`
}

type ExportData struct {
	Run     RunMetadata   `json:"run"`
	Samples []ExportFrame `json:"samples"`
}

func NewExportData(meta RunMetadata, snapshots []dynamo.Snapshot) ExportData {
	data := ExportData{Run: meta, Samples: make([]ExportFrame, len(snapshots))}
	for i, snap := range snapshots {
		frame := ExportFrame{Frame: snap.Frame, Bodies: make([]ExportBody, len(snap.Bodies))}
		for j, b := range snap.Bodies {
			eb := ExportBody{
				X: b.Pos.X, Y: b.Pos.Y, Z: b.Z,
				VX: b.Vel.X, VY: b.Vel.Y,
				Radius: b.Radius, Alpha: b.Alpha,
				Label: b.Label, Dragging: b.Dragging,
			}
			if c, ok := colorful.MakeColor(b.Color); ok {
				eb.Color = c.Hex()
			}
			if b.Glyph != 0 {
				eb.Glyph = string(b.Glyph)
			}
			frame.Bodies[j] = eb
		}
		data.Samples[i] = frame
	}
	return data
}

func WriteJSON(w io.Writer, meta RunMetadata, snapshots []dynamo.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(meta, snapshots))
}

func ExportJSON(path string, meta RunMetadata, snapshots []dynamo.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, snapshots)
}
