package cmd

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	colorable "github.com/mattn/go-colorable"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd creates the sandbox database schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate <database-url>",
	Short: "Create the sandbox SQL schema and apply migration plans",
	Run:   runMigrate,
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

var sandboxMigrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "001_initial_schema",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS shops (
					id SERIAL PRIMARY KEY,
					name TEXT NOT NULL,
					address TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					website TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					opening_hours TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					partner_id INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS loyalty_cards (
					id SERIAL PRIMARY KEY,
					user_id INTEGER NOT NULL,
					card_number TEXT NOT NULL UNIQUE,
					card_type TEXT NOT NULL DEFAULT 'standard',
					brand_name TEXT NOT NULL DEFAULT '',
					points_balance INTEGER NOT NULL DEFAULT 0,
					expires_at TIMESTAMPTZ,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_third_party BOOLEAN NOT NULL DEFAULT FALSE,
					qr_code TEXT NOT NULL DEFAULT '',
					barcode TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS offers (
					id SERIAL PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL,
					discount_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
					discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
					points_required INTEGER NOT NULL DEFAULT 0,
					points_earned INTEGER NOT NULL DEFAULT 0,
					promo_code TEXT NOT NULL DEFAULT '',
					starts_at TIMESTAMPTZ,
					ends_at TIMESTAMPTZ,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					is_featured BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS points_transactions (
					id SERIAL PRIMARY KEY,
					loyalty_card_id INTEGER NOT NULL REFERENCES loyalty_cards (id),
					points INTEGER NOT NULL,
					type TEXT NOT NULL,
					amount DOUBLE PRECISION NOT NULL DEFAULT 0,
					description TEXT NOT NULL DEFAULT '',
					reference_id TEXT NOT NULL DEFAULT '',
					shop_id INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL
				)`,
			},
			Down: []string{
				"DROP TABLE points_transactions",
				"DROP TABLE offers",
				"DROP TABLE loyalty_cards",
				"DROP TABLE shops",
			},
		},
	},
}

func runMigrate(cmd *cobra.Command, args []string) {
	url := c.DatabaseURL
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	}

	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.TextFormatter{ForceColors: true})
	log.SetOutput(colorable.NewColorableStdout())

	log.Info("Applying SQL migration...")

	db, err := sqlx.Open("postgres", url)
	if err != nil {
		log.Errorf("An error occurred while connecting to SQL: %s", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Errorf("An error occurred while connecting to SQL: %s", err)
		os.Exit(1)
	}

	n, err := migrate.Exec(db.DB, "postgres", sandboxMigrations, migrate.Up)
	if err != nil {
		log.Errorf("An error occurred while running the migrations: %s", err)
		os.Exit(1)
	}
	log.Infof("Migration successful! Applied a total of %d migrations.", n)
}
