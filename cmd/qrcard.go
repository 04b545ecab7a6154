package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Loyalty-lt/sdk-go/pkg/loyalty"
	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/points"
	"github.com/Loyalty-lt/sdk-go/pkg/qrflow"
)

var qrCardDeviceName string
var qrCardShopID int
var qrCardPollInterval time.Duration

// qrCardCmd runs a QR card scan session in the terminal.
var qrCardCmd = &cobra.Command{
	Use:   "qr-card",
	Short: "Run a QR card scan session and print the identified card",
	Run:   runQRCard,
}

func init() {
	qrCardCmd.Flags().StringVar(&qrCardDeviceName, "device-name", "Terminal CLI", "device name shown to the customer")
	qrCardCmd.Flags().IntVar(&qrCardShopID, "shop-id", 0, "shop to scope the session to")
	qrCardCmd.Flags().DurationVar(&qrCardPollInterval, "poll-interval", 0, "REST polling fallback interval (0 disables)")
	RootCmd.AddCommand(qrCardCmd)
}

func runQRCard(cmd *cobra.Command, args []string) {
	sdk, err := loyalty.New(c)
	if err != nil {
		log.Fatalf("SDK setup failed: %s", err)
	}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	flow := sdk.QRCardScan(qrflow.Options{
		DeviceName:   qrCardDeviceName,
		ShopID:       qrCardShopID,
		PollInterval: qrCardPollInterval,
	}, qrflow.CardCallbacks{
		OnGenerated: func(sess model.QRCardSession) {
			fmt.Printf("Scan to present a card: %s\n", sess.QRCode)
			fmt.Printf("Session %s expires at %s\n", sess.SessionID, sess.ExpiresAt.Format(time.RFC3339))
		},
		OnCardIdentified: func(card model.CardScanData) {
			fmt.Printf("Card %s identified, %d points available.\n", card.CardNumber, card.Points)
			if card.Redemption != nil {
				value := points.AmountFromPoints(card.Points, card.Redemption)
				fmt.Printf("Redeemable value: %.2f EUR\n", value)
			}
			finish()
		},
		OnCancelled: func() {
			fmt.Println("Session cancelled.")
			finish()
		},
		OnExpired: func() {
			fmt.Println("Session expired.")
			finish()
		},
		OnError: func(err error) {
			log.Errorf("Card flow failed: %s", err)
			finish()
		},
	})

	flow.Start()
	defer flow.Cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
		fmt.Println("Interrupted.")
	}
}
