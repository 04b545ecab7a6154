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
	"github.com/Loyalty-lt/sdk-go/pkg/qrflow"
)

var qrLoginDeviceName string
var qrLoginShopID int
var qrLoginPollInterval time.Duration

// qrLoginCmd runs a QR login session in the terminal.
var qrLoginCmd = &cobra.Command{
	Use:   "qr-login",
	Short: "Run a QR login session and print the result",
	Run:   runQRLogin,
}

func init() {
	qrLoginCmd.Flags().StringVar(&qrLoginDeviceName, "device-name", "Terminal CLI", "device name shown to the customer")
	qrLoginCmd.Flags().IntVar(&qrLoginShopID, "shop-id", 0, "shop to scope the session to")
	qrLoginCmd.Flags().DurationVar(&qrLoginPollInterval, "poll-interval", 0, "REST polling fallback interval (0 disables)")
	RootCmd.AddCommand(qrLoginCmd)
}

func runQRLogin(cmd *cobra.Command, args []string) {
	sdk, err := loyalty.New(c)
	if err != nil {
		log.Fatalf("SDK setup failed: %s", err)
	}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	flow := sdk.QRLogin(qrflow.Options{
		DeviceName:   qrLoginDeviceName,
		ShopID:       qrLoginShopID,
		PollInterval: qrLoginPollInterval,
	}, qrflow.LoginCallbacks{
		OnGenerated: func(sess model.QRLoginSession) {
			fmt.Printf("Scan to log in: %s\n", sess.QRCode)
			fmt.Printf("Session %s expires at %s\n", sess.SessionID, sess.ExpiresAt.Format(time.RFC3339))
		},
		OnScanned: func() {
			fmt.Println("Code scanned, waiting for confirmation...")
		},
		OnAuthenticated: func(res qrflow.AuthResult) {
			fmt.Println("Login confirmed.")
			if res.User != nil {
				fmt.Printf("User: %s (id %d)\n", res.User.Name, res.User.ID)
			}
			fmt.Printf("Access token: %s\n", res.Token)
			finish()
		},
		OnCancelled: func() {
			fmt.Println("Session cancelled on the customer's device.")
			finish()
		},
		OnExpired: func() {
			fmt.Println("Session expired.")
			finish()
		},
		OnError: func(err error) {
			log.Errorf("Login flow failed: %s", err)
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
