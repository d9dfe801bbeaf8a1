package db

import (
	"testing"

	"github.com/mursal-app/mursal/internal/config"
)

func TestRunMigrateUnknownCommand(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "mursal",
		Password: "secret",
		Database: "mursal",
		SSLMode:  "disable",
	}
	err := RunMigrate(nil, cfg, nil, "invalid", nil)
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateForceRequiresVersion(t *testing.T) {
	cfg := config.PostgresConfig{Host: "localhost", Port: 5432, User: "mursal", Database: "mursal", SSLMode: "disable"}
	err := RunMigrate(nil, cfg, nil, "force", nil)
	if err == nil {
		t.Fatal("expected error when force is missing its version argument")
	}
}
