// seed-admin creates the bootstrap user in the configured storage backend.
//
// Usage:
//
//	STORAGE_BACKEND=mysql DB_USER=... DB_PASSWORD=... go run ./cmd/seed-admin --username admin --password secret
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/backend"
	"github.com/spf13/cobra"
)

var (
	username string
	password string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin user if it does not exist",
	Long: `seed-admin connects to the backend named by STORAGE_BACKEND and creates
the admin user unless a user with that username already exists.
Defaults come from ADMIN_USERNAME and ADMIN_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	cfg := config.Load()
	rootCmd.Flags().StringVar(&username, "username", cfg.AdminUsername, "admin username")
	rootCmd.Flags().StringVar(&password, "password", cfg.AdminPassword, "admin password")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up connecting after this long")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := config.Load()
	store, err := backend.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	created, err := storage.EnsureAdmin(ctx, store, username, password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin user: username=%q backend=%s\n", username, cfg.StorageBackend)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "User %q already exists; nothing to do\n", username)
	}
	return nil
}
