package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"FitScanner/internal/domain"
	"FitScanner/internal/ports"
)

// columnOrder fixes the serialized layout of the master file.
var columnOrder = []string{
	"Professor", "Universidade", "Area", "Website", "Email", "Fit", "Justificativa",
}

// columnAliases maps lower-cased intake headers onto the canonical columns.
// Intake files come with free-form casing and legacy names.
var columnAliases = map[string]string{
	"nome":          "Professor",
	"professor":     "Professor",
	"universidade":  "Universidade",
	"university":    "Universidade",
	"area":          "Area",
	"área":          "Area",
	"website":       "Website",
	"site":          "Website",
	"email":         "Email",
	"e-mail":        "Email",
	"fit":           "Fit",
	"justificativa": "Justificativa",
	"analise_llm":   "Justificativa",
}

// legacyManualFits are hand-entered labels from before the classifier
// existed; they are cleared on load so those rows get reprocessed.
var legacyManualFits = map[string]struct{}{
	"high": {}, "very high": {}, "veryhigh": {},
	"low": {}, "very low": {}, "verylow": {},
	"medium": {}, "fit medium": {},
}

// CSVStore is the persisted subject table. It is single-writer: the pipeline
// owns it for the duration of a run and external readers only see committed
// snapshots between checkpoints.
type CSVStore struct {
	path    string
	records []*domain.Record
	logger  *slog.Logger
}

var _ ports.RecordStore = (*CSVStore)(nil)

// Open loads the master file, or starts an empty store when the file does
// not exist yet (it is created on the first checkpoint).
func Open(path string, logger *slog.Logger) (*CSVStore, error) {
	s := &CSVStore{path: path, logger: logger}

	records, err := readRecords(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("load master file: %w", err)
	}
	s.records = records
	return s, nil
}

// Records exposes the live rows. Mutations become durable on Checkpoint.
func (s *CSVStore) Records() []*domain.Record {
	return s.records
}

// Len reports the number of tracked subjects.
func (s *CSVStore) Len() int {
	return len(s.records)
}

// Checkpoint re-serializes the whole table to the master file, best fit
// first, replacing it atomically so a crash mid-write can never leave a
// half-written store behind.
func (s *CSVStore) Checkpoint() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".checkpoint-*.csv")
	if err != nil {
		return fmt.Errorf("create checkpoint file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(columnOrder); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range sortedByFit(s.records) {
		row := []string{
			rec.Professor, rec.Universidade, rec.Area,
			rec.Website, rec.Email, rec.Fit, rec.Justificativa,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// MergeIntake folds every intake file matching the glob into the store,
// deduplicating by normalized website; rows still lacking a website fall
// back to professor+university as their identity so re-running the merge
// with the same intake files cannot re-add them. Existing rows win: intake
// values only fill fields that are empty, so a blank intake row can never
// erase a completed classification. Returns the number of newly added
// subjects.
func (s *CSVStore) MergeIntake(glob string) (int, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return 0, fmt.Errorf("intake glob: %w", err)
	}

	byKey := make(map[string]*domain.Record, len(s.records))
	noSite := make(map[string]*domain.Record)
	for _, rec := range s.records {
		if key := domain.NormalizeWebsite(rec.Website); key != "" {
			byKey[key] = rec
		} else {
			noSite[identityFallback(rec)] = rec
		}
	}

	added := 0
	for _, path := range paths {
		if filepath.Clean(path) == filepath.Clean(s.path) {
			continue
		}
		rows, err := readRecords(path)
		if err != nil {
			return added, fmt.Errorf("read intake %s: %w", filepath.Base(path), err)
		}

		for _, row := range rows {
			key := domain.NormalizeWebsite(row.Website)
			if key == "" {
				fallback := identityFallback(row)
				if existing, ok := noSite[fallback]; ok {
					fillEmpty(existing, row)
					continue
				}
				s.records = append(s.records, row)
				noSite[fallback] = row
				added++
				continue
			}
			existing, ok := byKey[key]
			if !ok {
				s.records = append(s.records, row)
				byKey[key] = row
				added++
				continue
			}
			fillEmpty(existing, row)
		}

		if s.logger != nil {
			s.logger.Info("intake file merged", "file", filepath.Base(path), "rows", len(rows))
		}
	}

	return added, nil
}

// Reset backs the master file up to <path>.bak and clears every Fit and
// Justificativa so the next run reprocesses the whole roster.
func (s *CSVStore) Reset() error {
	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read master for backup: %w", err)
	}
	if err == nil {
		if err := os.WriteFile(s.path+".bak", raw, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}

	for _, rec := range s.records {
		rec.Fit = ""
		rec.Justificativa = ""
	}
	return s.Checkpoint()
}

// identityFallback keys rows that have no website yet.
func identityFallback(rec *domain.Record) string {
	return strings.ToLower(strings.TrimSpace(rec.Professor)) + "|" +
		strings.ToLower(strings.TrimSpace(rec.Universidade))
}

func fillEmpty(dst, src *domain.Record) {
	fill := func(d *string, v string) {
		if strings.TrimSpace(*d) == "" && strings.TrimSpace(v) != "" {
			*d = v
		}
	}
	fill(&dst.Professor, src.Professor)
	fill(&dst.Universidade, src.Universidade)
	fill(&dst.Area, src.Area)
	fill(&dst.Email, src.Email)
	fill(&dst.Fit, src.Fit)
	fill(&dst.Justificativa, src.Justificativa)
}

func sortedByFit(records []*domain.Record) []*domain.Record {
	out := make([]*domain.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return domain.FitRank(out[i].Fit) < domain.FitRank(out[j].Fit)
	})
	return out
}

// readRecords parses a tabular file with case-insensitive, alias-aware
// header resolution. Rows referencing columns the file lacks come back with
// empty values, matching the "create missing columns" contract.
func readRecords(path string) ([]*domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := map[string]int{}
	for i, header := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnAliases[name]; ok {
			if _, taken := index[canonical]; !taken {
				index[canonical] = i
			}
		}
	}

	field := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]*domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := &domain.Record{
			Professor:     field(row, "Professor"),
			Universidade:  field(row, "Universidade"),
			Area:          field(row, "Area"),
			Website:       field(row, "Website"),
			Email:         field(row, "Email"),
			Fit:           field(row, "Fit"),
			Justificativa: field(row, "Justificativa"),
		}
		if _, legacy := legacyManualFits[strings.ToLower(rec.Fit)]; legacy {
			rec.Fit = ""
			rec.Justificativa = ""
		}
		records = append(records, rec)
	}
	return records, nil
}
