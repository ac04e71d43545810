// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"time"
)

// runtimesUnderTest returns every runtime usable on this host.
func runtimesUnderTest(t *testing.T) []Runtime {
	t.Helper()

	rts := []Runtime{NewVirtualRuntime()}
	if _, err := exec.LookPath("sh"); err == nil {
		rts = append(rts, NewNativeRuntime())
	}
	return rts
}

func TestRuntime_CapturesOutput(t *testing.T) {
	t.Parallel()

	for _, rt := range runtimesUnderTest(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			result := rt.Run(context.Background(), &Invocation{
				Name:   "echo",
				Script: "echo out; echo err >&2",
			})
			if !result.Success() {
				t.Fatalf("Run() exit=%d err=%v", result.ExitCode, result.Error)
			}
			if got := strings.TrimSpace(result.Output); got != "out" {
				t.Errorf("Output = %q, want out", got)
			}
			if got := strings.TrimSpace(result.ErrOutput); got != "err" {
				t.Errorf("ErrOutput = %q, want err", got)
			}
		})
	}
}

func TestRuntime_ExitCode(t *testing.T) {
	t.Parallel()

	for _, rt := range runtimesUnderTest(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			result := rt.Run(context.Background(), &Invocation{
				Name:   "fail",
				Script: "echo partial; exit 3",
			})
			if result.ExitCode != 3 {
				t.Errorf("ExitCode = %d, want 3", result.ExitCode)
			}
			if result.Error != nil {
				t.Errorf("a non-zero exit is not an infrastructure error, got %v", result.Error)
			}
			if result.Success() {
				t.Error("Success() = true for exit 3")
			}
			if !strings.Contains(result.Output, "partial") {
				t.Errorf("partial output lost: %q", result.Output)
			}
		})
	}
}

func TestRuntime_EnvAndDir(t *testing.T) {
	t.Setenv("BB_LEAKED", "outer")

	for _, rt := range runtimesUnderTest(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			dir := t.TempDir()
			result := rt.Run(context.Background(), &Invocation{
				Name:   "env",
				Script: `echo "$BB_BACKEND:[$BB_LEAKED]"; echo hi > marker`,
				Dir:    dir,
				Env:    map[string]string{"BB_BACKEND": "c"},
			})
			if !result.Success() {
				t.Fatalf("Run() exit=%d err=%v stderr=%s", result.ExitCode, result.Error, result.ErrOutput)
			}
			if got := strings.TrimSpace(result.Output); got != "c:[]" {
				t.Errorf("Output = %q, want %q", got, "c:[]")
			}
			if _, err := exec.LookPath("cat"); err == nil {
				check := rt.Run(context.Background(), &Invocation{Name: "cat", Script: "cat marker", Dir: dir})
				if strings.TrimSpace(check.Output) != "hi" {
					t.Errorf("file not written in Dir: %q", check.Output)
				}
			}
		})
	}
}

func TestRuntime_Tee(t *testing.T) {
	t.Parallel()

	for _, rt := range runtimesUnderTest(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			var live bytes.Buffer
			result := rt.Run(context.Background(), &Invocation{
				Name:   "tee",
				Script: "echo streamed",
				Stdout: &live,
			})
			if !result.Success() {
				t.Fatalf("Run() err=%v", result.Error)
			}
			if live.String() != result.Output {
				t.Errorf("live output %q != captured %q", live.String(), result.Output)
			}
		})
	}
}

func TestRuntime_Timeout(t *testing.T) {
	t.Parallel()

	for _, rt := range runtimesUnderTest(t) {
		t.Run(rt.Name(), func(t *testing.T) {
			t.Parallel()

			result := rt.Run(context.Background(), &Invocation{
				Name:    "spin",
				Script:  "echo started; while :; do :; done",
				Timeout: 100 * time.Millisecond,
			})
			if !errors.Is(result.Error, ErrTimeout) {
				t.Fatalf("expected ErrTimeout, got %v", result.Error)
			}
			var te *TimeoutError
			if !errors.As(result.Error, &te) || te.Name != "spin" {
				t.Errorf("expected *TimeoutError naming the invocation, got %v", result.Error)
			}
			if result.ExitCode == 0 {
				t.Error("timed-out run must not report exit 0")
			}
			if !strings.Contains(result.Output, "started") {
				t.Errorf("partial output lost: %q", result.Output)
			}
		})
	}
}

func TestRuntime_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewVirtualRuntime().Run(ctx, &Invocation{Name: "noop", Script: "true"})
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", result.Error)
	}
}

func TestRuntime_EmptyScript(t *testing.T) {
	t.Parallel()

	for _, rt := range []Runtime{NewVirtualRuntime(), NewNativeRuntime()} {
		result := rt.Run(context.Background(), &Invocation{Name: "empty", Script: "  \n"})
		if !errors.Is(result.Error, ErrEmptyScript) {
			t.Errorf("%s: expected ErrEmptyScript, got %v", rt.Name(), result.Error)
		}
	}
}

func TestVirtualRuntime_SyntaxError(t *testing.T) {
	t.Parallel()

	result := NewVirtualRuntime().Run(context.Background(), &Invocation{Name: "bad", Script: "if then fi ("})
	if result.Error == nil {
		t.Fatal("expected syntax error")
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{"": NameVirtual, "virtual": NameVirtual, "native": NameNative} {
		rt, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if rt.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", name, rt.Name(), want)
		}
	}

	if _, err := New("container"); !errors.Is(err, ErrUnknownRuntime) {
		t.Errorf("expected ErrUnknownRuntime, got %v", err)
	}
}

func TestEnvToSlice_Sorted(t *testing.T) {
	t.Parallel()

	got := EnvToSlice(map[string]string{"B": "2", "A": "1", "C": "3"})
	if want := []string{"A=1", "B=2", "C=3"}; !slices.Equal(got, want) {
		t.Errorf("EnvToSlice() = %v, want %v", got, want)
	}
}

func TestFilterBitbenchEnvVars(t *testing.T) {
	t.Parallel()

	got := FilterBitbenchEnvVars([]string{"PATH=/bin", "BB_SCHEMA=x", "BITBENCH_RUN_TIMEOUT=1s", "BBQ=yes", "malformed"})
	if want := []string{"PATH=/bin", "BBQ=yes", "malformed"}; !slices.Equal(got, want) {
		t.Errorf("FilterBitbenchEnvVars() = %v, want %v", got, want)
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	if !ExitCode(0).IsSuccess() || ExitCode(1).IsSuccess() {
		t.Error("IsSuccess() mismatch")
	}
	if err := ExitCode(256).Validate(); !errors.Is(err, ErrInvalidExitCode) {
		t.Errorf("expected ErrInvalidExitCode, got %v", err)
	}
	if err := ExitCode(-1).Validate(); err == nil {
		t.Error("expected error for -1")
	}
	if ExitCode(42).String() != "42" {
		t.Errorf("String() = %q", ExitCode(42).String())
	}
	if !ExitCode(127).IsCommandNotFound() || ExitCode(1).IsCommandNotFound() {
		t.Error("IsCommandNotFound() mismatch")
	}
	if sig, ok := ExitCode(137).Signal(); !ok || sig != 9 {
		t.Errorf("Signal() = %d, %v; want 9, true", sig, ok)
	}
	if _, ok := ExitCode(2).Signal(); ok {
		t.Error("Signal() should not report a signal for status 2")
	}
}
