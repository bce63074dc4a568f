package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/snekterm/game"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Recorder streams the ticks of a single round into a Parquet file.
type Recorder struct {
	roundID string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[TickRow]

	rows int32
	now  func() time.Time
}

func NewRecorder(outDir, roundID string) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if roundID == "" {
		return nil, fmt.Errorf("roundID is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fileName(roundID)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[TickRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", schemaName)
	w.SetKeyValueMetadata("round_id", roundID)

	return &Recorder{
		roundID: roundID,
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
		now:     time.Now,
	}, nil
}

func (r *Recorder) RoundID() string { return r.roundID }
func (r *Recorder) OutPath() string { return r.outPath }
func (r *Recorder) Rows() int       { return int(r.rows) }

// Record appends the frame produced by a tick on a width x height board.
func (r *Recorder) Record(width, height int32, outcome game.Outcome, f game.Frame) error {
	if r.writer == nil {
		return fmt.Errorf("recorder for round %s is closed", r.roundID)
	}
	row := RowFromFrame(r.roundID, r.rows, width, height, outcome, f)
	row.RecordedNs = r.now().UnixNano()
	if _, err := r.writer.Write([]TickRow{row}); err != nil {
		return fmt.Errorf("write tick %d: %w", r.rows, err)
	}
	r.rows++
	return nil
}

// Finalize closes the file and moves it out of tmp/. If nothing was
// recorded the tmp file is removed and the returned path is empty.
func (r *Recorder) Finalize() (string, error) {
	if r.writer == nil && r.file == nil {
		return "", nil
	}

	var closeErr error
	if r.writer != nil {
		closeErr = r.writer.Close()
		r.writer = nil
	}
	var fileErr error
	if r.file != nil {
		_ = r.file.Sync()
		fileErr = r.file.Close()
		r.file = nil
	}
	if closeErr != nil {
		_ = os.Remove(r.tmpPath)
		return "", fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		_ = os.Remove(r.tmpPath)
		return "", fmt.Errorf("close parquet file: %w", fileErr)
	}

	if r.rows == 0 {
		_ = os.Remove(r.tmpPath)
		return "", nil
	}
	if err := os.Rename(r.tmpPath, r.outPath); err != nil {
		_ = os.Remove(r.tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return r.outPath, nil
}

// WriteRound writes a complete round in one call.
func WriteRound(outDir string, rows []TickRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to write")
	}
	if err := os.MkdirAll(filepath.Join(outDir, "tmp"), 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fileName(rows[0].RoundID)
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(outDir, "tmp", name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaName),
		parquet.KeyValueMetadata("round_id", rows[0].RoundID),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
