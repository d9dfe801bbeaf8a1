package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	migrations "github.com/mursal-app/mursal/db"
	"github.com/mursal-app/mursal/internal/config"
	"github.com/mursal-app/mursal/internal/db"
	"github.com/mursal-app/mursal/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.toml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config path] <up|down|version|force N>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	migrationFiles, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrations fs: %v\n", err)
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	if err := db.RunMigrate(logger.L, cfg.Postgres, migrationFiles, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", command, err)
		os.Exit(1)
	}
}
