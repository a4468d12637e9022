package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"quiz-option-service/internal/domain"
)

func TestRenderCommandPrintsState(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"render",
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--options", "A. Red\nB. Green\nC. Blue",
		"--answer", "B",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var state domain.RenderState
	if err := json.Unmarshal(out.Bytes(), &state); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(state.Options) != 3 || state.Kind != domain.ControlRadio {
		t.Fatalf("unexpected state %+v", state)
	}
	if !strings.Contains(state.List, `id="ckid2"`) {
		t.Fatalf("expected markup for third control, got %s", state.List)
	}
}

func TestRenderCommandMarkupOnly(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"render",
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--options", "<div>A. Red</div><div>B. Green</div>",
		"--answer", "AB",
		"--markup",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `type="checkbox"`) {
		t.Fatalf("expected checkbox markup, got %s", out.String())
	}
}

func TestRenderCommandRejectsEmptyKey(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"render",
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--options", "A. Red",
		"--answer", "123",
	})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for answer without letters")
	}
}
