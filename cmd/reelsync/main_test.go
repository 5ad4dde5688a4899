package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a config file rooted in a temp dir and returns its
// path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[reconcile]
batch_size = 10
failure_policy = "skip"
stale_after_hours = 0

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output missing %q:\n%s", want, output)
	}
}

const pipelineCSV = `show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description
s1,Movie,First Film,Agnes Varda,"Jane Birkin, Anna Karina",France,"March 1, 2019",1985,PG,95 min,"Dramas, Classic Movies",A film.
s2,TV Show,Second Show,,"Anna Karina",Japan,"July 4, 2020",2020,TV-MA,3 Seasons,"Sci-Fi",A show.
`

func TestPipelineCommands(t *testing.T) {
	configPath := writeTestConfig(t)

	csvPath := filepath.Join(t.TempDir(), "titles.csv")
	if err := os.WriteFile(csvPath, []byte(pipelineCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, err := runCLI(t, configPath, "import", csvPath)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	requireContains(t, out, "Imported 2 source rows")

	out, err = runCLI(t, configPath, "titles")
	if err != nil {
		t.Fatalf("titles: %v\n%s", err, out)
	}
	requireContains(t, out, "2 created")

	out, err = runCLI(t, configPath, "stage")
	if err != nil {
		t.Fatalf("stage: %v\n%s", err, out)
	}
	requireContains(t, out, "actors_titles")
	requireContains(t, out, "Staged 3 actors_titles candidates")

	out, err = runCLI(t, configPath, "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v\n%s", err, out)
	}
	requireContains(t, out, "actors_titles: 3 processed, 3 created, 0 skipped")

	out, err = runCLI(t, configPath, "runs", "--summary")
	if err != nil {
		t.Fatalf("runs --summary: %v\n%s", err, out)
	}
	requireContains(t, out, "actors_titles")
	requireContains(t, out, "stage_actors_titles")
	requireContains(t, out, "source_titles")

	out, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "source_titles")
	requireContains(t, out, "drained")
}

func TestStageSingleRelationFlag(t *testing.T) {
	configPath := writeTestConfig(t)

	csvPath := filepath.Join(t.TempDir(), "titles.csv")
	if err := os.WriteFile(csvPath, []byte(pipelineCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if out, err := runCLI(t, configPath, "import", csvPath); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}

	out, err := runCLI(t, configPath, "stage", "--relation", "categories")
	if err != nil {
		t.Fatalf("stage: %v\n%s", err, out)
	}
	requireContains(t, out, "Staged 3 categories_titles candidates")

	if _, err := runCLI(t, configPath, "stage", "--relation", "bogus"); err == nil {
		t.Fatal("expected error for unknown relation")
	}
}

func TestBackfillRequiresGeminiEnabled(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "backfill"); err == nil {
		t.Fatal("expected error when gemini is disabled")
	}
}

func TestRunsWithoutHistory(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "runs")
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, out)
	}
	requireContains(t, out, "No runs recorded yet")
}
