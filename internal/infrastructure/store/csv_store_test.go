package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"FitScanner/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", s.Len())
	}

	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("master file not created: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Professor,Universidade,Area,Website,Email,Fit,Justificativa") {
		t.Fatalf("unexpected header: %q", string(raw))
	}
}

func TestOpenResolvesHeadersCaseInsensitively(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	writeFile(t, path, "nome,UNIVERSITY,website,analise_llm,fit\n"+
		"Ana Souza,UFMG,https://ufmg.br/~ana,relatório antigo,Fit Alto\n")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}

	rec := s.Records()[0]
	if rec.Professor != "Ana Souza" || rec.Universidade != "UFMG" {
		t.Fatalf("aliased columns not mapped: %+v", rec)
	}
	if rec.Justificativa != "relatório antigo" || rec.Fit != "Fit Alto" {
		t.Fatalf("fit columns not mapped: %+v", rec)
	}
	if rec.Email != "" {
		t.Fatalf("missing column must read empty, got %q", rec.Email)
	}
}

func TestOpenClearsLegacyManualFits(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	writeFile(t, path, "Professor,Website,Fit,Justificativa\n"+
		"Ana,https://a.edu,Very High,manual note\n"+
		"Bia,https://b.edu,Fit Alto,análise\n")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	ana := s.Records()[0]
	if ana.Fit != "" || ana.Justificativa != "" {
		t.Fatalf("legacy manual fit must be cleared, got %+v", ana)
	}
	if s.Records()[1].Fit != "Fit Alto" {
		t.Fatalf("classifier-produced fit must survive, got %+v", s.Records()[1])
	}
}

func TestMergeIntakeDeduplicatesByNormalizedURL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	master := filepath.Join(dir, "base.csv")
	writeFile(t, master, "Professor,Website,Fit,Justificativa\n"+
		"Ana,https://a.edu/lab/,Fit Alto,done\n")
	writeFile(t, filepath.Join(dir, "novos_dados_1.csv"),
		"nome,website,email\n"+
			"Ana Souza,https://a.edu/lab,ana@a.edu\n"+
			"Caio,https://c.edu,\n")

	s, err := Open(master, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	added, err := s.MergeIntake(filepath.Join(dir, "novos_dados*.csv"))
	if err != nil {
		t.Fatalf("MergeIntake error: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 new record, got %d", added)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 records after merge, got %d", s.Len())
	}

	ana := s.Records()[0]
	if ana.Fit != "Fit Alto" || ana.Justificativa != "done" {
		t.Fatalf("existing classification overwritten by intake: %+v", ana)
	}
	if ana.Email != "ana@a.edu" {
		t.Fatalf("intake must fill empty fields, got %q", ana.Email)
	}
}

func TestMergeIntakeBlankWebsiteIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	master := filepath.Join(dir, "base.csv")
	writeFile(t, master, "Professor,Website,Fit,Justificativa\n"+
		"Ana,https://a.edu,Fit Alto,done\n")
	writeFile(t, filepath.Join(dir, "novos_dados_1.csv"),
		"nome,universidade,website\nBruno,USP,\n")
	glob := filepath.Join(dir, "novos_dados*.csv")

	s, err := Open(master, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	added, err := s.MergeIntake(glob)
	if err != nil {
		t.Fatalf("MergeIntake error: %v", err)
	}
	if added != 1 || s.Len() != 2 {
		t.Fatalf("first merge: added=%d len=%d", added, s.Len())
	}
	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint error: %v", err)
	}

	// Second run with the intake file still in the data directory.
	s, err = Open(master, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	added, err = s.MergeIntake(glob)
	if err != nil {
		t.Fatalf("second MergeIntake error: %v", err)
	}
	if added != 0 {
		t.Fatalf("blank-website row re-added on second run: added=%d", added)
	}

	var brunos int
	for _, rec := range s.Records() {
		if rec.Professor == "Bruno" {
			brunos++
		}
	}
	if brunos != 1 {
		t.Fatalf("expected 1 copy of Bruno, got %d", brunos)
	}
}

func TestMergeIntakeIgnoresMasterFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	master := filepath.Join(dir, "base.csv")
	writeFile(t, master, "Professor,Website\nAna,https://a.edu\n")

	s, err := Open(master, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	added, err := s.MergeIntake(filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatalf("MergeIntake error: %v", err)
	}
	if added != 0 || s.Len() != 1 {
		t.Fatalf("master merged into itself: added=%d len=%d", added, s.Len())
	}
}

func TestCheckpointOrdersByFitRank(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	writeFile(t, path, "Professor,Website,Fit\n"+
		"Erro Row,https://e.edu,Erro\n"+
		"Baixo Row,https://b.edu,Fit Baixo\n"+
		"Alto Row,https://a.edu,Fit Muito Alto\n")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint error: %v", err)
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	got := make([]string, 0, reloaded.Len())
	for _, rec := range reloaded.Records() {
		got = append(got, rec.Professor)
	}
	want := []string{"Alto Row", "Baixo Row", "Erro Row"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}

func TestCheckpointRoundTripsMutations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	writeFile(t, path, "Professor,Website,Fit,Justificativa\nAna,https://a.edu,,\n")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	rec := s.Records()[0]
	rec.Fit = string(domain.FitAlto)
	rec.Justificativa = "linha 1\nlinha 2, com vírgula"

	if err := s.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint error: %v", err)
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	got := reloaded.Records()[0]
	if got.Fit != string(domain.FitAlto) {
		t.Fatalf("fit lost: %+v", got)
	}
	if got.Justificativa != "linha 1\nlinha 2, com vírgula" {
		t.Fatalf("report mangled: %q", got.Justificativa)
	}
}

func TestResetBacksUpAndClears(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "base.csv")
	writeFile(t, path, "Professor,Website,Fit,Justificativa\n"+
		"Ana,https://a.edu,Fit Alto,done\n")

	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset error: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if !strings.Contains(string(backup), "Fit Alto") {
		t.Fatalf("backup lost original data: %q", string(backup))
	}

	reloaded, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	rec := reloaded.Records()[0]
	if rec.Fit != "" || rec.Justificativa != "" {
		t.Fatalf("reset did not clear fields: %+v", rec)
	}
	if !rec.Pending() {
		t.Fatal("reset record must be pending again")
	}
}
