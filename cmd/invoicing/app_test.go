package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"italiancorner/mydata_core/internal/core/branch"
	"italiancorner/mydata_core/internal/core/sequence"
	"italiancorner/mydata_core/internal/infrastructure/config"
	"italiancorner/mydata_core/internal/testutil"
)

func TestLoadBranches(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "branches.json")
	if err := os.WriteFile(custom, []byte(`[{"id":"kiosk","label":"Kiosk","series":"K","kind":"restaurant","revenueMapping":{"allowedVatRates":[13],"defaultVat":13}}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantIDs []string
		wantErr bool
	}{
		{name: "defaults", path: "", wantIDs: branch.DefaultRegistry().IDs()},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: true},
		{name: "malformed file", path: broken, wantErr: true},
		{name: "custom file", path: custom, wantIDs: []string{"kiosk"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry, err := loadBranches(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if strings.Join(registry.IDs(), ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("expected %v, got %v", tt.wantIDs, registry.IDs())
			}
		})
	}
}

func TestNewApp_MemoryStorage(t *testing.T) {
	cfg := config.AppConfig{
		App:     config.AppSettings{Name: "mydata_core", Version: "test", Environment: "test"},
		Storage: config.StorageSettings{Driver: config.StorageMemory},
		MyData:  config.MyDataSettings{Sandbox: true, BreakerFailures: 5, RetryRPS: 2},
	}

	a, err := newApp(context.Background(), cfg, testutil.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()

	status := a.health.Status(context.Background())
	if status.Status != "DEGRADED" {
		t.Errorf("expected DEGRADED without a proxy, got %s", status.Status)
	}

	report, err := a.submissions.RetryAll(context.Background())
	if err != nil || report.Attempted != 0 {
		t.Errorf("expected an empty retry run, got %+v, %v", report, err)
	}
}

func TestNextNumberCommand(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BRANCHES_FILE", "")
	t.Setenv("MYDATA_PROXY_URL", "")
	t.Setenv("AUTH_ENABLED", "false")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"next-number", "--branch", "villa2"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := Execute(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v (%s)", err, errOut.String())
	}
	if got := strings.TrimSpace(out.String()); got != sequence.Format(1) {
		t.Errorf("expected %s, got %q", sequence.Format(1), got)
	}
}
