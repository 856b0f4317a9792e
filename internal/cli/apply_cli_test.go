package cli

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"branchward/internal/engine"
)

func withoutEnv(keys ...string) []string {
	out := make([]string, 0, len(os.Environ()))
entries:
	for _, e := range os.Environ() {
		for _, key := range keys {
			if strings.HasPrefix(e, key+"=") {
				continue entries
			}
		}
		out = append(out, e)
	}
	return out
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	// internal/cli -> repo root
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func goExe() string {
	if runtime.GOOS == "windows" {
		return "go.exe"
	}
	return "go"
}

func buildBranchwardBinary(t *testing.T) string {
	t.Helper()

	outPath := filepath.Join(t.TempDir(), "branchward-test")
	if runtime.GOOS == "windows" {
		outPath += ".exe"
	}

	cmd := exec.Command(goExe(), "build", "-o", outPath, "./cmd/branchward")
	cmd.Dir = repoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build branchward binary: %v; output=%s", err, string(out))
	}

	return outPath
}

func writeMinimalSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.yaml")
	spec := `branches:
  - branch: main
    required: true
    policy:
      required_approving_review_count: 1
`
	if err := os.WriteFile(path, []byte(spec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func requireExitCode(t *testing.T, cmd *exec.Cmd, want int) string {
	t.Helper()
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit; output=%s", string(out))
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v; output=%s", err, err, string(out))
	}
	if code := exitErr.ProcessState.ExitCode(); code != want {
		t.Fatalf("expected exit code %d, got %d; output=%s", want, code, string(out))
	}
	return string(out)
}

func TestApply_ExitCode2_WhenNoCredentials(t *testing.T) {
	binary := buildBranchwardBinary(t)
	cmd := exec.Command(binary, "apply", "--spec", writeMinimalSpec(t), "--repo", "octo/widgets")
	// Scrub every credential source: env token, gh CLI (empty PATH), Vault.
	cmd.Env = append(withoutEnv("GITHUB_TOKEN", "VAULT_ADDR"), "PATH="+t.TempDir())

	out := requireExitCode(t, cmd, engine.ExitFatal)
	if !strings.Contains(out, "no valid credentials") {
		t.Fatalf("expected credentials error; output=%s", out)
	}
	// Authentication is fatal: no per-branch results may precede it.
	if strings.Contains(out, "main") {
		t.Fatalf("expected no branch output on fatal auth failure; output=%s", out)
	}
}

func TestApply_ExitCode2_WhenDryRunAndVerifyOnlyCombined(t *testing.T) {
	binary := buildBranchwardBinary(t)
	cmd := exec.Command(binary, "apply", "--spec", writeMinimalSpec(t), "--dry-run", "--verify-only")

	out := requireExitCode(t, cmd, engine.ExitFatal)
	if !strings.Contains(out, "mutually exclusive") {
		t.Fatalf("expected validation message; output=%s", out)
	}
}

func TestApply_ExitCode2_WhenSpecFileMissing(t *testing.T) {
	binary := buildBranchwardBinary(t)
	cmd := exec.Command(binary, "apply", "--spec", filepath.Join(t.TempDir(), "absent.yaml"))

	out := requireExitCode(t, cmd, engine.ExitFatal)
	if !strings.Contains(out, "open spec file") {
		t.Fatalf("expected spec load error; output=%s", out)
	}
}
