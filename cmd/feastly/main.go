package main

import (
	"fmt"
	"os"

	"feastly/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	port    int
)

var rootCmd = &cobra.Command{
	Use:   "feastly",
	Short: "Food ordering API with queue-aware delivery estimates",
	Long: `feastly serves a restaurant catalogue, takes orders and estimates when
each order will arrive from the restaurant's base delivery time, its current
backlog and the time of day.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")

	serveCmd.Flags().IntVar(&port, "port", 0, "API server port (overrides config)")

	seedCmd.Flags().Int("count", 20, "number of restaurants to generate")
	seedCmd.Flags().Int("users", 5, "number of users to generate")
	seedCmd.Flags().Bool("clear", false, "delete existing restaurants and users first")
	seedCmd.Flags().String("admin-email", "", "create an admin account with this email")
	seedCmd.Flags().String("admin-password", "", "password for the admin account")

	browseCmd.Flags().String("api-url", "", "API base URL (defaults to $FEASTLY_API_URL or http://localhost:8080)")
	browseCmd.Flags().String("email", "", "sign in as this user; the password is read from $FEASTLY_PASSWORD")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, estimateCmd, browseCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if port > 0 {
		cfg.Port = port
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
