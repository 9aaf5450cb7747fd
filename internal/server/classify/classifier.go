// Package classify invokes the external classifier scripts. The contract
// with a script is one input value in, a single digit out: 1 for a threat,
// 0 for clean. The models themselves are a black box.
package classify

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAnalysisFailed is returned when a script exits without producing a
// classification.
var ErrAnalysisFailed = errors.New("analysis failed")

const (
	scriptSQL      = "predict_sql.py"
	scriptPhishing = "predict_phishing.py"
	scriptMalware  = "predict_malware.py"
)

// ScriptClassifier runs the Python prediction scripts from a fixed
// directory. Query and URL inputs are written to the script's stdin; file
// scans pass the sample path as an argument.
type ScriptClassifier struct {
	python    string
	scriptDir string
}

func NewScriptClassifier(python, scriptDir string) *ScriptClassifier {
	if python == "" {
		python = "python3"
	}
	return &ScriptClassifier{python: python, scriptDir: scriptDir}
}

func (c *ScriptClassifier) ClassifyQuery(ctx context.Context, query string) (int, error) {
	return c.run(ctx, scriptSQL, query)
}

func (c *ScriptClassifier) ClassifyURL(ctx context.Context, url string) (int, error) {
	return c.run(ctx, scriptPhishing, url)
}

func (c *ScriptClassifier) ClassifyFile(ctx context.Context, path string) (int, error) {
	return c.run(ctx, scriptMalware, "", path)
}

func (c *ScriptClassifier) run(ctx context.Context, script, stdin string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, c.python, append([]string{filepath.Join(c.scriptDir, script)}, args...)...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin + "\n")
	}

	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}

	result := strings.TrimSpace(string(out))
	if result == "" {
		return 0, ErrAnalysisFailed
	}
	// Scripts may emit warmup noise before the verdict; the last line wins.
	lines := strings.Split(result, "\n")
	verdict, err := strconv.Atoi(strings.TrimSpace(lines[len(lines)-1]))
	if err != nil {
		return 0, ErrAnalysisFailed
	}

	return verdict, nil
}
