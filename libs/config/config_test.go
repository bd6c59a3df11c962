package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CLINIC_TEST_A=from-file\nCLINIC_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CLINIC_TEST_A", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CLINIC_TEST_B") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := String("CLINIC_TEST_A", ""); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := String("CLINIC_TEST_B", ""); got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("CLINIC_INT", "7")
	t.Setenv("CLINIC_BAD_INT", "-3")
	t.Setenv("CLINIC_DUR", "90s")
	t.Setenv("CLINIC_BOOL", "yes")
	t.Setenv("CLINIC_LIST", " a, ,b ")

	if got := Int("CLINIC_INT", 1); got != 7 {
		t.Fatalf("Int = %d", got)
	}
	if got := Int("CLINIC_BAD_INT", 5); got != 5 {
		t.Fatalf("Int fallback = %d", got)
	}
	if got := Duration("CLINIC_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration = %s", got)
	}
	if !Bool("CLINIC_BOOL", false) {
		t.Fatalf("Bool should be true")
	}
	if got := List("CLINIC_LIST", ""); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List = %v", got)
	}
	t.Setenv("CLINIC_RATIO", "0.25")
	t.Setenv("CLINIC_BAD_RATIO", "1.5")
	if got := Ratio("CLINIC_RATIO", 1); got != 0.25 {
		t.Fatalf("Ratio = %v", got)
	}
	if got := Ratio("CLINIC_BAD_RATIO", 1); got != 1 {
		t.Fatalf("Ratio fallback = %v", got)
	}
	if _, err := Port("CLINIC_PORT_UNSET", "70000"); err == nil {
		t.Fatalf("expected invalid port error")
	}
	if _, err := RequiredString("CLINIC_REQUIRED_UNSET"); err == nil {
		t.Fatalf("expected required error")
	}
}
