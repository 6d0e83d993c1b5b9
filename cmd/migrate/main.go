// Command migrate applies or rolls back the SQL migrations by hand.
//
//	migrate up | down | version | to <n>
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"campus-events/internal/config"
	"campus-events/internal/database/migrations"
	"campus-events/internal/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-dir ./migrations] up | down | version | to <version>")
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dir := flag.String("dir", cfg.Database.MigrationsDir, "directory holding the *.sql migrations")
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	log, err := logger.NewLogger(cfg.Log.Dir, "migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	runner := migrations.NewRunner(sqlDB, migrations.MigrateOptions{MigrationsDir: *dir}, log)
	defer runner.Close()

	switch flag.Arg(0) {
	case "up":
		err = runner.RunMigrations()
	case "down":
		err = runner.MigrateDown()
	case "to":
		if flag.NArg() != 2 {
			usage()
		}
		var v uint64
		v, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.MigrateTo(uint(v))
		}
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = runner.Version()
		if err == nil {
			log.Info("DATABASE", fmt.Sprintf("Schema version %d (dirty=%t)", version, dirty))
		}
	default:
		usage()
	}
	if err != nil {
		log.Error("DATABASE", err.Error())
		runner.Close()
		os.Exit(1)
	}
	log.Info("DATABASE", fmt.Sprintf("migrate %s finished", flag.Arg(0)))
}
