// seed loads the office floor plan (desks and users) from a YAML file
// into the reservation database, and prints bcrypt hashes for the
// ACCESS_CODE_HASH settings.
//
//	seed --file floorplan.yaml
//	seed --file floorplan.yaml --dry-run
//	seed --hash-code 'shared code'
//
// Database settings come from the same DB_* variables as the server;
// --driver and --sqlite-path override them.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/desk-reservation/internal/cache"
	"github.com/iliyamo/desk-reservation/internal/config"
	"github.com/iliyamo/desk-reservation/internal/database"
	"github.com/iliyamo/desk-reservation/internal/floorplan"
	"github.com/iliyamo/desk-reservation/internal/repository"
	"github.com/iliyamo/desk-reservation/internal/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		file       string
		driver     string
		sqlitePath string
		hashCode   string
		dryRun     bool
	)
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flags.StringVarP(&file, "file", "f", "floorplan.yaml", "floor-plan YAML file")
	flags.StringVar(&driver, "driver", "", "database driver, mysql or sqlite (default: DB_DRIVER)")
	flags.StringVar(&sqlitePath, "sqlite-path", "", "SQLite file (default: SQLITE_PATH)")
	flags.StringVar(&hashCode, "hash-code", "", "print the bcrypt hash of an access code and exit")
	flags.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if rest := flags.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if hashCode != "" {
		hash, err := utils.HashAccessCode(hashCode, bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	plan, err := floorplan.Load(file)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("%s: %d desks, %d users\n", file, len(plan.Desks), len(plan.Users))
		return nil
	}

	dbCfg, err := config.LoadDBConfig()
	if err != nil && driver == "" {
		return err
	}
	if driver != "" {
		dbCfg.DBDriver = strings.ToLower(driver)
	}
	if sqlitePath != "" {
		dbCfg.SQLitePath = sqlitePath
	}
	if err := dbCfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dbCfg.DBDriver); err != nil {
		return err
	}

	nDesks, nUsers, err := floorplan.Apply(ctx, plan, repository.NewDeskRepo(db), repository.NewUserRepo(db))
	if err != nil {
		return err
	}
	if dc := cache.NewDeskCache(config.LoadCatalogCacheConfig(), config.NewRedisClient()); dc != nil {
		dc.Invalidate(ctx)
	}
	fmt.Printf("seeded %d desks and %d users into %s\n", nDesks, nUsers, dbCfg.DBDriver)
	return nil
}
