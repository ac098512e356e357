package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"feastly/internal/auth"
	"feastly/internal/client"
	"feastly/internal/delivery"
	"feastly/internal/seed"
	"feastly/internal/tui"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		log.Printf("Database schema is up to date (%s)", cfg.Database.Driver)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with generated restaurants and users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return fmt.Errorf("seeding is not allowed in production")
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		flags := cmd.Flags()
		opts := seed.Options{}
		opts.Restaurants, _ = flags.GetInt("count")
		opts.Users, _ = flags.GetInt("users")
		opts.Clear, _ = flags.GetBool("clear")
		opts.AdminEmail, _ = flags.GetString("admin-email")
		opts.AdminPassword, _ = flags.GetString("admin-password")
		if opts.AdminEmail != "" && len(opts.AdminPassword) < 8 {
			return fmt.Errorf("--admin-password must be at least 8 characters")
		}

		manager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
		res, err := seed.New(st, manager).Run(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <restaurant-id>",
	Short: "Print the delivery estimate an order placed now would get",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid restaurant id %q", args[0])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		estimate, err := delivery.NewEstimator(st, cfg.EstimatorOptions()...).Estimate(cmd.Context(), uint(id))
		if err != nil {
			return err
		}
		return printJSON(estimate)
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse restaurants and track orders in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		apiURL, _ := flags.GetString("api-url")
		email, _ := flags.GetString("email")

		c := client.NewClient(apiURL)
		if err := c.CheckHealth(cmd.Context()); err != nil {
			return fmt.Errorf("API server at %s is not available: %w", c.BaseURL, err)
		}
		if email != "" {
			password := os.Getenv("FEASTLY_PASSWORD")
			if password == "" {
				return fmt.Errorf("set FEASTLY_PASSWORD to sign in as %s", email)
			}
			if _, err := c.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
		}
		return tui.Run(c)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
