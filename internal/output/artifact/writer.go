package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/output"
	"github.com/Adithya-Monish-Kumar-K/compositional-split/internal/splitter/partition"
	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
)

const (
	SplitFile = "split.bin"
	DataFile  = "data.bin"
	SplitJSON = "split.json"
	DataJSON  = "data.json"
)

// Dir returns the artifact directory savePath/captionType/category.
func Dir(savePath, captionType, category string) string {
	return filepath.Join(savePath, captionType, category)
}

// Writer is the file sink. Repeated saves into the same directory replace
// the previous files.
type Writer struct {
	dir       string
	writeJSON bool
	logger    *slog.Logger
}

// NewWriter creates dir if needed.
func NewWriter(dir string, writeJSON bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Newf(apperrors.ErrStorage, "creating artifact directory %s: %v", dir, err)
	}
	return &Writer{
		dir:       dir,
		writeJSON: writeJSON,
		logger:    slog.Default().With("component", "artifact-writer", "dir", dir),
	}, nil
}

func (w *Writer) Name() string { return "artifact" }

func (w *Writer) Save(ctx context.Context, res *output.Result) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "creating artifact directory: %v", err)
	}
	splitPayload, err := json.Marshal(res.Split)
	if err != nil {
		return fmt.Errorf("marshaling split: %w", err)
	}
	dataPayload, err := json.Marshal(res.Records.Export())
	if err != nil {
		return fmt.Errorf("marshaling caption data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	items := len(res.Split.Train) + len(res.Split.TestSeen) + len(res.Split.TestUnseen)
	if err := WriteFile(filepath.Join(w.dir, SplitFile), KindSplit, items, splitPayload); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "writing %s: %v", SplitFile, err)
	}
	if err := WriteFile(filepath.Join(w.dir, DataFile), KindData, res.Records.Len(), dataPayload); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "writing %s: %v", DataFile, err)
	}
	if w.writeJSON {
		if err := writeIndented(filepath.Join(w.dir, SplitJSON), res.Split); err != nil {
			return err
		}
		if err := writeIndented(filepath.Join(w.dir, DataJSON), res.Records.Export()); err != nil {
			return err
		}
	}
	w.logger.Info("artifacts written",
		"split_bytes", len(splitPayload),
		"data_bytes", len(dataPayload),
		"json", w.writeJSON,
	)
	return nil
}

func (w *Writer) Close() error { return nil }

func writeIndented(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return apperrors.Newf(apperrors.ErrStorage, "writing %s: %v", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Newf(apperrors.ErrStorage, "renaming %s: %v", filepath.Base(path), err)
	}
	return nil
}

// LoadSplit reads split.bin from dir.
func LoadSplit(dir string) (*partition.Descriptor, error) {
	header, payload, err := ReadFile(filepath.Join(dir, SplitFile))
	if err != nil {
		return nil, err
	}
	if header.Kind != KindSplit {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%s holds %s, not split", SplitFile, header.Kind)
	}
	var d partition.Descriptor
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "parsing split: %v", err)
	}
	return &d, nil
}

// LoadData reads data.bin from dir in its persisted shape.
func LoadData(dir string) (map[string]map[string]*dataset.CaptionRecord, error) {
	header, payload, err := ReadFile(filepath.Join(dir, DataFile))
	if err != nil {
		return nil, err
	}
	if header.Kind != KindData {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%s holds %s, not data", DataFile, header.Kind)
	}
	var data map[string]map[string]*dataset.CaptionRecord
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "parsing caption data: %v", err)
	}
	return data, nil
}
