package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"parcel-pricing-service/internal/adapters/repositories"
	"parcel-pricing-service/internal/config"
	"parcel-pricing-service/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var databaseURL string

	root := &cobra.Command{
		Use:          "dbtool",
		Short:        "Prepare the parcel pricing database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", config.Get("DATABASE_URL", ""), "Postgres connection URL (defaults to $DATABASE_URL)")

	withDB := func(fn func(ctx context.Context, conn *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(databaseURL) == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			conn, err := db.Open(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()
			return fn(cmd.Context(), conn)
		}
	}

	root.AddCommand(
		initSchemaCmd(withDB),
		seedTypesCmd(withDB),
		bootstrapCmd(withDB),
	)
	return root
}

type dbRunner func(fn func(ctx context.Context, conn *sql.DB) error) func(*cobra.Command, []string) error

func initSchemaCmd(withDB dbRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "init-schema",
		Short: "Create tables and indexes if they do not exist",
		RunE: withDB(func(ctx context.Context, conn *sql.DB) error {
			log.Println("Initializing database schema...")
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			log.Println("Schema ready.")
			return nil
		}),
	}
}

func seedTypesCmd(withDB dbRunner) *cobra.Command {
	var seedPath string
	c := &cobra.Command{
		Use:   "seed-types",
		Short: "Upsert the canonical parcel types from a JSON seed file",
		RunE: withDB(func(ctx context.Context, conn *sql.DB) error {
			return seed(ctx, conn, seedPath)
		}),
	}
	c.Flags().StringVar(&seedPath, "seed", config.Get("SEED_PATH", "data/seeds/parcel_types.json"), "Path to the parcel type seed file")
	return c
}

func bootstrapCmd(withDB dbRunner) *cobra.Command {
	var seedPath string
	c := &cobra.Command{
		Use:   "bootstrap",
		Short: "Run init-schema then seed-types",
		RunE: withDB(func(ctx context.Context, conn *sql.DB) error {
			if err := repositories.InitSchema(ctx, conn); err != nil {
				return err
			}
			log.Println("Schema ready.")
			return seed(ctx, conn, seedPath)
		}),
	}
	c.Flags().StringVar(&seedPath, "seed", config.Get("SEED_PATH", "data/seeds/parcel_types.json"), "Path to the parcel type seed file")
	return c
}

func seed(ctx context.Context, conn *sql.DB, seedPath string) error {
	log.Printf("Seeding parcel types from %s...", seedPath)
	seeds, err := repositories.LoadParcelTypeSeeds(seedPath)
	if err != nil {
		return err
	}
	if err := repositories.SeedParcelTypes(ctx, conn, seeds); err != nil {
		return err
	}
	log.Printf("Seeded %d parcel types.", len(seeds))
	return nil
}
