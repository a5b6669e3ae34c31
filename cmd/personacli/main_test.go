package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wallet-persona-engine/internal/domain/service"
)

func writeInputFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write input file: %v", err)
	}
	return path
}

func TestRunProducesResultJSON(t *testing.T) {
	path := writeInputFile(t, `{
		"walletAddress": "0xabc",
		"transactions": [
			{"hash": "0x1", "timestamp": "2024-02-01T10:00:00Z", "type": "swap", "details": {"protocol": "Uniswap"}}
		]
	}`)

	var out bytes.Buffer
	if err := run(path, "", false, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result["walletAddress"] != "0xabc" {
		t.Errorf("expected wallet address in output, got %v", result["walletAddress"])
	}
	if len(result) != 6 {
		t.Errorf("expected exactly 6 top-level keys, got %d", len(result))
	}
}

func TestRunWalletOverride(t *testing.T) {
	path := writeInputFile(t, `{"walletAddress": "0xoriginal", "transactions": []}`)

	var out bytes.Buffer
	if err := run(path, "0xoverride", false, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result["walletAddress"] != "0xoverride" {
		t.Errorf("expected overridden wallet address, got %v", result["walletAddress"])
	}
}

func TestRunFailsWithoutWallet(t *testing.T) {
	path := writeInputFile(t, `{"transactions": []}`)

	var out bytes.Buffer
	if err := run(path, "", false, &out); err == nil {
		t.Error("expected an error when no wallet address is given")
	}
}

func TestRunReportsValidationFailures(t *testing.T) {
	path := writeInputFile(t, `{
		"walletAddress": "0xabc",
		"transactions": [
			{"hash": "", "timestamp": "bad", "type": "teleport"}
		]
	}`)

	var out bytes.Buffer
	err := run(path, "", false, &out)
	if err == nil {
		t.Fatal("expected a validation error")
	}

	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected *ValidationError for the exit-code mapping, got %T", err)
	}
}
