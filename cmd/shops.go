package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Loyalty-lt/sdk-go/pkg/loyalty"
)

// shopsCmd lists the partner's shops, or prints one when an id is given.
var shopsCmd = &cobra.Command{
	Use:   "shops [id]",
	Short: "List shops visible to the configured API key",
	Args:  cobra.MaximumNArgs(1),
	Run:   runShops,
}

func init() {
	RootCmd.AddCommand(shopsCmd)
}

func runShops(cmd *cobra.Command, args []string) {
	sdk, err := loyalty.New(c)
	if err != nil {
		log.Fatalf("SDK setup failed: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(args) == 1 {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("shop id must be numeric: %s", args[0])
		}

		shop, err := sdk.Shop(ctx, id)
		if err != nil {
			log.Fatalf("Failed to fetch shop: %s", err)
		}

		fmt.Printf("%d\t%s\t%s\n", shop.ID, shop.Name, shop.Address)
		return
	}

	shops, meta, err := sdk.Shops(ctx, loyalty.ShopFilter{})
	if err != nil {
		log.Fatalf("Failed to fetch shops: %s", err)
	}

	for _, shop := range shops {
		fmt.Printf("%d\t%s\t%s\n", shop.ID, shop.Name, shop.Address)
	}
	if meta != nil {
		fmt.Printf("(%d of %d shops)\n", len(shops), meta.Total)
	}
}
