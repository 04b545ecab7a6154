// Package cmd implements the loyalty-cli command line interface: small
// terminal frontends for the QR flows, the shop API and the sandbox
// backend.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Loyalty-lt/sdk-go/config"
)

var cfgFile string
var c = new(config.Config)

var (
	Version   = "dev-master"
	BuildTime = "undefined"
	GitHash   = "undefined"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "loyalty-cli",
	Short: "Loyalty.lt shop SDK command line interface",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cmd.UsageString())
		os.Exit(2)
	},
}

// Execute runs the CLI and is called by main.main().
func Execute() {
	c.BuildTime = BuildTime
	c.BuildVersion = Version
	c.BuildHash = GitHash

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.loyalty-sdk.yml)")
}

// initConfig reads the config file and the LOYALTY_* environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName(".loyalty-sdk")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
			if _, err := os.Stat(filepath.Join(home, ".loyalty-sdk.yml")); err != nil {
				_, _ = os.Create(filepath.Join(home, ".loyalty-sdk.yml"))
			}
		}
	}

	viper.SetEnvPrefix("LOYALTY")
	viper.AutomaticEnv()

	viper.BindEnv("API_KEY")
	viper.BindEnv("API_SECRET")

	viper.BindEnv("API_URL")
	viper.SetDefault("API_URL", "")

	viper.BindEnv("REALTIME_URL")
	viper.SetDefault("REALTIME_URL", "")

	viper.BindEnv("ENVIRONMENT")
	viper.SetDefault("ENVIRONMENT", string(config.EnvironmentProduction))

	viper.BindEnv("LOCALE")
	viper.SetDefault("LOCALE", config.DefaultLocale)

	viper.BindEnv("TIMEOUT")
	viper.BindEnv("RETRIES")
	viper.BindEnv("DEBUG")
	viper.BindEnv("AUTO_REGENERATE")

	viper.BindEnv("HOST")
	viper.SetDefault("HOST", "")

	viper.BindEnv("PORT")
	viper.SetDefault("PORT", 8090)

	viper.BindEnv("DATABASE_URL")
	viper.SetDefault("DATABASE_URL", "")

	viper.BindEnv("NATS_URL")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Printf("Config file not found because %q\n", err)
		}
	}

	if err := viper.Unmarshal(c); err != nil {
		fmt.Printf("Could not read config because %s.\n", err)
		os.Exit(1)
	}
}
