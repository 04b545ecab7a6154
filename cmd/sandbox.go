package cmd

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Loyalty-lt/sdk-go/pkg/sandbox"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
	"github.com/Loyalty-lt/sdk-go/pkg/storage/memory"
	"github.com/Loyalty-lt/sdk-go/pkg/storage/postgres"
)

var sandboxSeed bool

// sandboxCmd runs the local development backend.
var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run the local sandbox backend",
	Long: `Run a local stand-in for the hosted platform. It serves the shop API,
simulates the customer's phone under /sandbox and pushes realtime messages
through NATS. Without LOYALTY_DATABASE_URL the data lives in memory.`,
	Run: runSandbox,
}

func init() {
	sandboxCmd.Flags().BoolVar(&sandboxSeed, "seed", true, "load demo data on start")
	RootCmd.AddCommand(sandboxCmd)
}

func runSandbox(cmd *cobra.Command, args []string) {
	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	store := openStore()

	var pub sandbox.Publisher
	if c.NATSServerURL != "" {
		nc, err := nats.Connect(c.NATSServerURL, nats.Name("loyalty-sandbox"))
		if err != nil {
			log.Warnf("NATS unreachable, realtime pushes disabled: %s", err)
		} else {
			defer nc.Close()
			pub = nc
			log.Infof("Publishing realtime messages via %s", c.NATSServerURL)
		}
	}

	if sandboxSeed {
		if err := sandbox.Seed(store); err != nil {
			log.Warnf("Failed to seed demo data: %s", err)
		}
	}

	srv := sandbox.NewServer(c, store, pub)
	if err := srv.Run(); err != nil {
		log.Fatalf("Sandbox server failed: %s", err)
	}
}

func openStore() storage.Interface {
	if c.DatabaseURL == "" {
		log.Info("No database configured, using in-memory storage")
		return memory.NewStore()
	}

	db, err := sqlx.Open("postgres", c.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to reach database: %s", err)
	}

	log.Info("Using PostgreSQL storage")
	return postgres.NewStore(db)
}
