package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	if err := f.Success(map[string]int{"removed": 3}); err != nil {
		t.Fatalf("Success() failed: %v", err)
	}

	var resp CLIResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
	if resp.Error != nil {
		t.Errorf("unexpected error payload: %v", resp.Error)
	}
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	if err := f.Error(ErrCodeStorage, "open database", "disk full"); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}

	var resp CLIResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if resp.Status != "error" || resp.Error == nil {
		t.Fatalf("response = %+v, want error envelope", resp)
	}
	if resp.Error.Code != ErrCodeStorage {
		t.Errorf("code = %q, want %q", resp.Error.Code, ErrCodeStorage)
	}
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	if err := f.Error(ErrCodeFeed, "holiday feed failed", nil); err != nil {
		t.Fatalf("Error() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Error [E003]: holiday feed failed") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: true}

	f.VerboseLog("scanned %d keys", 7)
	if out.Len() != 0 {
		t.Errorf("verbose log corrupted primary output: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "scanned 7 keys") {
		t.Errorf("ErrWriter = %q", errOut.String())
	}
}

func TestGetExitCode(t *testing.T) {
	if got := GetExitCode(WrapExitError(ExitCommandError, "bad flag", nil)); got != ExitCommandError {
		t.Errorf("GetExitCode(ExitError) = %d, want %d", got, ExitCommandError)
	}
	if got := GetExitCode(errors.New("plain")); got != ExitFailure {
		t.Errorf("GetExitCode(plain) = %d, want %d", got, ExitFailure)
	}
}
