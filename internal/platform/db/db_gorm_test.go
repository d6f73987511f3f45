package db

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestBuildDSN_TCP(t *testing.T) {
	cfg := Config{
		User:     "app",
		Password: "secret",
		Name:     "users",
		Host:     "127.0.0.1",
		Port:     "3306",
	}

	dsn := BuildDSN(cfg)

	want := "app:secret@tcp(127.0.0.1:3306)/users?charset=utf8mb4&parseTime=true&loc=Local"
	if dsn != want {
		t.Errorf("BuildDSN = %q, want %q", dsn, want)
	}
}

func TestBuildDSN_CloudSQL(t *testing.T) {
	cfg := Config{
		User:         "app",
		Password:     "secret",
		Name:         "users",
		InstanceName: "project:region:instance",
	}

	dsn := BuildDSN(cfg)

	if !strings.Contains(dsn, "unix(/cloudsql/project:region:instance)") {
		t.Errorf("DSN should use the Cloud SQL unix socket, got %q", dsn)
	}
}

// InstanceName wins over Host/Port when both are configured.
func TestBuildDSN_InstancePrecedence(t *testing.T) {
	cfg := Config{
		User:         "app",
		Password:     "secret",
		Name:         "users",
		Host:         "127.0.0.1",
		Port:         "3306",
		InstanceName: "project:region:instance",
	}

	dsn := BuildDSN(cfg)

	if strings.Contains(dsn, "tcp(") {
		t.Errorf("DSN should not dial TCP when InstanceName is set, got %q", dsn)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "users")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("INSTANCE_CONNECTION_NAME", "")

	cfg := LoadConfigFromEnv()

	if cfg.User != "app" || cfg.Password != "secret" || cfg.Name != "users" {
		t.Errorf("unexpected credentials: %+v", cfg)
	}
	if cfg.Host != "db" || cfg.Port != "3307" {
		t.Errorf("unexpected host/port: %+v", cfg)
	}
	if cfg.InstanceName != "" {
		t.Errorf("InstanceName = %q, want empty", cfg.InstanceName)
	}
}

func TestConnectWithRetry_Success(t *testing.T) {
	want := &gorm.DB{}
	calls := 0

	got, err := ConnectWithRetry("dsn", time.Second, func(dsn string) (*gorm.DB, error) {
		calls++
		return want, nil
	})

	if err != nil {
		t.Fatalf("ConnectWithRetry returned error: %v", err)
	}
	if got != want {
		t.Error("ConnectWithRetry returned a different handle")
	}
	if calls != 1 {
		t.Errorf("opener called %d times, want 1", calls)
	}
}

func TestConnectWithRetry_RecoversAfterFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps between attempts")
	}

	want := &gorm.DB{}
	calls := 0

	got, err := ConnectWithRetry("dsn", 10*time.Second, func(dsn string) (*gorm.DB, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("connection refused")
		}
		return want, nil
	})

	if err != nil {
		t.Fatalf("ConnectWithRetry returned error: %v", err)
	}
	if got != want {
		t.Error("ConnectWithRetry returned a different handle")
	}
	if calls != 2 {
		t.Errorf("opener called %d times, want 2", calls)
	}
}

func TestConnectWithRetry_Timeout(t *testing.T) {
	dialErr := errors.New("connection refused")

	_, err := ConnectWithRetry("dsn", 0, func(dsn string) (*gorm.DB, error) {
		return nil, dialErr
	})

	if err == nil {
		t.Fatal("expected error after timeout")
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("error should wrap the dial failure, got %v", err)
	}
}
