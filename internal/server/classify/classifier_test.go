package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeScript drops a fake prediction script into dir. The classifier only
// cares about the interpreter and the last output line, so plain shell
// stands in for the Python models.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestClassifyQuery_LastLineWins(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, scriptSQL, "read q\necho loading model...\necho 1\n")

	c := NewScriptClassifier("/bin/sh", dir)

	verdict, err := c.ClassifyQuery(context.Background(), "' OR 1=1 --")
	if err != nil {
		t.Fatalf("ClassifyQuery error: %v", err)
	}
	if verdict != 1 {
		t.Fatalf("want verdict 1, got %d", verdict)
	}
}

func TestClassifyURL_Clean(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, scriptPhishing, "read u\necho 0\n")

	c := NewScriptClassifier("/bin/sh", dir)

	verdict, err := c.ClassifyURL(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("ClassifyURL error: %v", err)
	}
	if verdict != 0 {
		t.Fatalf("want verdict 0, got %d", verdict)
	}
}

func TestClassifyFile_PassesPath(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, scriptMalware, `test -f "$1" && echo 1 || echo 0`+"\n")

	sample := filepath.Join(dir, "sample.bin")
	if err := os.WriteFile(sample, []byte("MZ"), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}

	c := NewScriptClassifier("/bin/sh", dir)

	verdict, err := c.ClassifyFile(context.Background(), sample)
	if err != nil {
		t.Fatalf("ClassifyFile error: %v", err)
	}
	if verdict != 1 {
		t.Fatalf("script never saw the sample path, verdict %d", verdict)
	}
}

func TestClassify_NonNumericOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, scriptSQL, "read q\necho oops\n")

	c := NewScriptClassifier("/bin/sh", dir)

	_, err := c.ClassifyQuery(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("want ErrAnalysisFailed, got %v", err)
	}
}

func TestClassify_EmptyOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, scriptSQL, "read q\n")

	c := NewScriptClassifier("/bin/sh", dir)

	_, err := c.ClassifyQuery(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Fatalf("want ErrAnalysisFailed, got %v", err)
	}
}

func TestClassify_MissingScript(t *testing.T) {
	c := NewScriptClassifier("/bin/sh", t.TempDir())

	if _, err := c.ClassifyQuery(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("expected an error for a missing script")
	}
}
