// ABOUTME: Merges every per-pair CSV under an output root into one deduplicated file.
// ABOUTME: Unreadable files are reported and skipped; the merge itself carries on.

package output

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/contact"
)

// ErrNoSourceFiles is returned when the root holds no per-pair files.
var ErrNoSourceFiles = errors.New("no contact files found to merge")

// FileResult is the outcome for one source file.
type FileResult struct {
	Path string
	Rows int
	Err  error
}

// MergeReport summarizes a merge.
type MergeReport struct {
	Files     []FileResult
	Unique    int
	Duplicate int
	NoChannel int
	Output    string
	Written   bool
}

// Failed returns the files that could not be read.
func (r *MergeReport) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Merge walks root in lexical order, unions every contacts.csv it finds and
// writes the deduplicated rows to mergedPath. The first row per dedup key wins.
// Rows with neither email nor instagram are dropped. No file is written when
// nothing survives.
func Merge(ctx context.Context, root, mergedPath string, logger *zap.Logger) (*MergeReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := discover(root, mergedPath)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoSourceFiles, root)
	}

	report := &MergeReport{Output: mergedPath}
	seen := make(map[string]struct{})
	var merged []contact.Record

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		records, err := ReadCSV(path)
		if err != nil {
			logger.Error("failed to read contacts file", zap.String("path", path), zap.Error(err))
			report.Files = append(report.Files, FileResult{Path: path, Err: err})
			continue
		}
		report.Files = append(report.Files, FileResult{Path: path, Rows: len(records)})
		logger.Info("processed contacts file", zap.String("path", path), zap.Int("rows", len(records)))

		for _, r := range records {
			key, ok := r.Key()
			if !ok {
				report.NoChannel++
				continue
			}
			if _, dup := seen[key]; dup {
				report.Duplicate++
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}

	report.Unique = len(merged)
	if len(merged) == 0 {
		logger.Info("no contacts found to merge")
		return report, nil
	}

	if err := (FileStore{}).Write(mergedPath, merged); err != nil {
		return report, fmt.Errorf("write merged file: %w", err)
	}
	report.Written = true
	logger.Info("merged contacts",
		zap.Int("unique", report.Unique),
		zap.Int("duplicates", report.Duplicate),
		zap.String("output", mergedPath))
	return report, nil
}

// discover lists per-pair files under root in lexical walk order, skipping
// the merge output itself.
func discover(root, mergedPath string) ([]string, error) {
	absMerged, _ := filepath.Abs(mergedPath)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || d.Name() != FileName {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absMerged {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}

// ReadCSV reads a whole per-pair file. Columns are matched by header name;
// missing columns read as empty.
func ReadCSV(path string) ([]contact.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCSV(f)
}

// DecodeCSV parses CSV content with a header row.
func DecodeCSV(r io.Reader) ([]contact.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	records := make([]contact.Record, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				m[name] = row[i]
			}
		}
		records = append(records, contact.FromRow(m))
	}
	return records, nil
}
