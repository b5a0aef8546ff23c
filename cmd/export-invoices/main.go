// export-invoices writes every invoice in the configured backend to an xlsx workbook.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/config"
	"github.com/Abhi-coder-crypto/Inv-gen/export"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/backend"
	"github.com/spf13/cobra"
)

var (
	outPath  string
	clientID string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "export-invoices",
	Short: "Export invoices to an Excel workbook",
	Long: `export-invoices reads invoices from the backend named by STORAGE_BACKEND
and writes them, with their line items, to an xlsx file.

Examples:
  # All invoices
  export-invoices --out invoices.xlsx

  # One client's invoices to stdout
  export-invoices --client 3 --out - > client.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "invoices.xlsx", "output file, - for stdout")
	rootCmd.Flags().StringVar(&clientID, "client", "", "only export this client's invoices")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	store, err := backend.Open(ctx, config.Load(), nil)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	var invoices []*models.Invoice
	if clientID != "" {
		invoices, err = storage.ClientInvoices(ctx, store, models.ID(clientID))
	} else {
		invoices, err = store.GetInvoices(ctx)
	}
	if err != nil {
		return fmt.Errorf("load invoices: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.Invoices(w, invoices); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if outPath != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d invoices to %s\n", len(invoices), outPath)
	}
	return nil
}
