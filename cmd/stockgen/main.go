// Command stockgen adds a random stock_status column to a product catalog CSV.
package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/productrecommend/backend/internal/infrastructure/catalog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		inPath  string
		outPath string
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "stockgen",
		Short: "Assign a random stock status to every catalog row",
		Long: `stockgen reads a product catalog CSV and writes a copy with a stock_status
column. Each row gets one of あり, 残りわずか or なし, chosen uniformly at random.
The output is UTF-8 with a BOM so spreadsheet tools detect the encoding.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			return run(inPath, outPath, seed)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "data/products.csv", "input catalog CSV")
	cmd.Flags().StringVar(&outPath, "out", "data/products_with_stock_status.csv", "output CSV")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")

	return cmd
}

func run(inPath, outPath string, seed uint64) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer in.Close()

	// Rows go to a temp file beside outPath, which is replaced only on success
	out, err := os.CreateTemp(filepath.Dir(outPath), ".stockgen-*.csv")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	tmpPath := out.Name()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rows, err := catalog.AugmentStockStatus(in, out, catalog.RandomPicker(rng))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, outPath)
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	log.Printf("[STOCKGEN] Wrote %d rows to %s (seed %d)", rows, outPath, seed)
	return nil
}
