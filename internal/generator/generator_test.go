// SPDX-License-Identifier: MPL-2.0

package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitproto/bitbench/internal/matrix"
	"github.com/bitproto/bitbench/internal/runtime"
	"github.com/bitproto/bitbench/internal/testutil"
	"github.com/bitproto/bitbench/internal/workspace"
)

// fakeCompiler writes one file per generation whose content depends only on
// the template variables and the schema.
const fakeCompiler = `printf '// lang=%s optimize=%s filter=%s\n' "$BB_LANG" "$BB_OPTIMIZE" "$BB_FILTER" > "$BB_OUT_DIR/drone_bp.$BB_LANG"
while IFS= read -r line; do echo "// $line"; done < "$BB_SCHEMA" >> "$BB_OUT_DIR/drone_bp.$BB_LANG"`

const droneSchema = "proto drone\nmessage Drone { uint8 id = 1; }\n"

var (
	cStandard = matrix.Pair{Backend: matrix.BackendC, Mode: matrix.Standard()}
	goStd     = matrix.Pair{Backend: matrix.BackendGo, Mode: matrix.Standard()}
)

func newTestGenerator(t *testing.T, command string) (*Generator, *workspace.Workspace, string) {
	t.Helper()

	ws, err := workspace.New(t.TempDir(), false)
	if err != nil {
		t.Fatalf("workspace.New() error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	schema := filepath.Join(t.TempDir(), "drone.bitproto")
	testutil.MustWriteFile(t, schema, droneSchema)

	return New(Options{Command: command, Runtime: runtime.NewVirtualRuntime(), Workspace: ws}), ws, schema
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	g, ws, schema := newTestGenerator(t, fakeCompiler)

	res, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.OutputDir != ws.GenDir(cStandard) {
		t.Errorf("OutputDir = %q, want %q", res.OutputDir, ws.GenDir(cStandard))
	}
	if len(res.Files) != 1 || res.Files[0] != "drone_bp.c" {
		t.Errorf("Files = %v, want [drone_bp.c]", res.Files)
	}
	content := testutil.MustReadFile(t, filepath.Join(res.OutputDir, "drone_bp.c"))
	if !strings.Contains(content, "lang=c optimize= filter=") {
		t.Errorf("standard generation got wrong variables: %q", content)
	}
	if !strings.Contains(content, "message Drone") {
		t.Errorf("schema not passed to compiler: %q", content)
	}
	if got := testutil.MustReadFile(t, schema); got != droneSchema {
		t.Errorf("schema was modified: %q", got)
	}
}

func TestGenerate_OptimizedVariables(t *testing.T) {
	t.Parallel()

	g, _, schema := newTestGenerator(t, fakeCompiler)

	res, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Optimized("Drone"))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	content := testutil.MustReadFile(t, filepath.Join(res.OutputDir, "drone_bp.c"))
	if !strings.Contains(content, "optimize=1 filter=Drone") {
		t.Errorf("optimized generation got wrong variables: %q", content)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	g, _, schema := newTestGenerator(t, fakeCompiler)

	first, err := g.Generate(context.Background(), schema, matrix.BackendGo, matrix.Standard())
	if err != nil {
		t.Fatalf("first Generate() error: %v", err)
	}
	second, err := g.Generate(context.Background(), schema, matrix.BackendGo, matrix.Standard())
	if err != nil {
		t.Fatalf("second Generate() error: %v", err)
	}
	if first.Digest != second.Digest {
		t.Errorf("digests differ: %s vs %s", first.Digest, second.Digest)
	}
}

func TestGenerate_Isolation(t *testing.T) {
	t.Parallel()

	g, ws, schema := newTestGenerator(t, fakeCompiler)

	c, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(context.Background(), schema, matrix.BackendGo, matrix.Standard()); err != nil {
		t.Fatal(err)
	}

	after, err := workspace.DigestDir(ws.GenDir(cStandard))
	if err != nil {
		t.Fatal(err)
	}
	if after.String() != c.Digest {
		t.Error("generating go/standard changed the c/standard artifacts")
	}
	goFiles, err := workspace.DigestDir(ws.GenDir(goStd))
	if err != nil {
		t.Fatal(err)
	}
	if len(goFiles.Files) != 1 || goFiles.Files[0] != "drone_bp.go" {
		t.Errorf("go artifacts = %v", goFiles.Files)
	}
}

func TestGenerate_IsolationBetweenSimilarFilters(t *testing.T) {
	t.Parallel()

	g, ws, schema := newTestGenerator(t, fakeCompiler)
	slash := matrix.Pair{Backend: matrix.BackendC, Mode: matrix.Optimized("Drone/Pose")}

	first, err := g.Generate(context.Background(), schema, slash.Backend, slash.Mode)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Optimized("Drone_Pose"))
	if err != nil {
		t.Fatal(err)
	}
	if first.OutputDir == second.OutputDir {
		t.Fatalf("filters Drone/Pose and Drone_Pose share %s", first.OutputDir)
	}

	content := testutil.MustReadFile(t, filepath.Join(ws.GenDir(slash), "drone_bp.c"))
	if !strings.Contains(content, "filter=Drone/Pose") {
		t.Errorf("Drone/Pose artifacts were overwritten: %q", content)
	}
}

func TestGenerate_FailureKeepsPriorArtifacts(t *testing.T) {
	t.Parallel()

	good, ws, schema := newTestGenerator(t, fakeCompiler)
	prior, err := good.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
	if err != nil {
		t.Fatal(err)
	}

	bad := New(Options{
		Command:   `echo partial > "$BB_OUT_DIR/half.c"; echo "syntax error at line 3" >&2; exit 2`,
		Runtime:   runtime.NewVirtualRuntime(),
		Workspace: ws,
	})
	_, err = bad.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
	if ge.ExitCode != 2 || ge.Pair != cStandard {
		t.Errorf("GenerationError = %+v", ge)
	}
	if !strings.Contains(err.Error(), "syntax error at line 3") {
		t.Errorf("error does not carry compiler stderr: %v", err)
	}

	after, err := workspace.DigestDir(ws.GenDir(cStandard))
	if err != nil {
		t.Fatal(err)
	}
	if after.String() != prior.Digest {
		t.Error("failed generation modified the previous artifacts")
	}

	staging, err := os.ReadDir(filepath.Join(ws.Root(), "staging"))
	if err != nil {
		t.Fatal(err)
	}
	if len(staging) != 0 {
		t.Errorf("failed generation left %d staging entries", len(staging))
	}
}

func TestGenerate_NoArtifacts(t *testing.T) {
	t.Parallel()

	g, _, schema := newTestGenerator(t, "echo nothing to do")

	_, err := g.Generate(context.Background(), schema, matrix.BackendPython, matrix.Standard())
	if !errors.Is(err, ErrNoArtifacts) || !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrNoArtifacts wrapped in ErrGenerationFailed, got %v", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	t.Parallel()

	ws, err := workspace.New(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	schema := filepath.Join(t.TempDir(), "s.bitproto")
	testutil.MustWriteFile(t, schema, droneSchema)

	g := New(Options{Command: "while :; do :; done", Timeout: 50 * time.Millisecond, Workspace: ws})
	_, err = g.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
	if !errors.Is(err, runtime.ErrTimeout) || !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected timeout generation failure, got %v", err)
	}
}

func TestGenerate_SchemaNotFound(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGenerator(t, fakeCompiler)

	for _, schema := range []string{"", filepath.Join(t.TempDir(), "missing.bitproto"), t.TempDir()} {
		_, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard())
		if !errors.Is(err, ErrSchemaNotFound) {
			t.Errorf("Generate(%q) expected ErrSchemaNotFound, got %v", schema, err)
		}
	}
}

func TestGenerate_UnsupportedBackend(t *testing.T) {
	t.Parallel()

	g, _, schema := newTestGenerator(t, fakeCompiler)

	_, err := g.Generate(context.Background(), schema, matrix.Backend("rust"), matrix.Standard())
	if !errors.Is(err, matrix.ErrUnsupportedBackend) {
		t.Errorf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestGenerate_BackendNotConfigured(t *testing.T) {
	t.Parallel()

	g, ws, schema := newTestGenerator(t, fakeCompiler)
	g.opts.Backends = []matrix.Backend{matrix.BackendC}

	_, err := g.Generate(context.Background(), schema, matrix.BackendGo, matrix.Standard())
	if !errors.Is(err, matrix.ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
	if _, statErr := os.Stat(ws.GenDir(goStd)); !os.IsNotExist(statErr) {
		t.Errorf("rejected backend produced a gen directory: %v", statErr)
	}

	if _, err := g.Generate(context.Background(), schema, matrix.BackendC, matrix.Standard()); err != nil {
		t.Errorf("configured backend failed: %v", err)
	}
}

func TestGenerationError_Message(t *testing.T) {
	t.Parallel()

	err := &GenerationError{
		Pair:      matrix.Pair{Backend: matrix.BackendC, Mode: matrix.Optimized("Drone")},
		ExitCode:  1,
		ErrOutput: "warning\nerror: unknown type\n",
	}
	want := "generate c/optimized[Drone]: compiler exited with status 1: error: unknown type"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
