package main

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"market-price-api/src/dbutils"
	"market-price-api/src/finta"
	"market-price-api/src/pricecache"
	"market-price-api/src/prices"
	"market-price-api/src/store"
	"market-price-api/src/syncer"
	"market-price-api/src/utils"
)

func buildSyncService() (*syncer.Service, error) {
	if err := utils.InitEnvironmentVariables(); err != nil {
		return nil, fmt.Errorf("buildSyncService: %w", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("buildSyncService: DATABASE_URL is not set")
	}

	db, err := dbutils.InitPostgresWithUrl(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("buildSyncService: %w", err)
	}

	priceStore := store.NewPriceStore(db)

	fintaClient := finta.NewClient(
		utils.GetEnv("FINTA_BASE_URL", "https://platform.fintacharts.com"),
		utils.GetEnv("FINTA_WS_URL", "wss://platform.fintacharts.com"),
		os.Getenv("FINTA_USERNAME"),
		os.Getenv("FINTA_PASSWORD"),
		30*time.Second,
	)

	// The CLI runs one-shot jobs; the in-memory cache just keeps the read
	// path's signature satisfied.
	priceService := prices.NewService(priceStore, pricecache.NewMemory(), fintaClient)

	return syncer.NewService(priceStore, fintaClient, priceService), nil
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "Synchronize the instrument catalog from upstream",
	Run: func(cmd *cobra.Command, args []string) {
		provider, err := cmd.Flags().GetString("provider")
		if err != nil {
			log.Fatalf("error getting provider: %v", err)
		}

		kind, err := cmd.Flags().GetString("kind")
		if err != nil {
			log.Fatalf("error getting kind: %v", err)
		}

		svc, err := buildSyncService()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		created, err := svc.SyncInstruments(context.Background(), provider, kind)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Printf("Created %d new assets\n", created)
	},
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Synchronize recent prices for one symbol",
	Run: func(cmd *cobra.Command, args []string) {
		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		provider, err := cmd.Flags().GetString("provider")
		if err != nil {
			log.Fatalf("error getting provider: %v", err)
		}

		interval, err := cmd.Flags().GetString("interval")
		if err != nil {
			log.Fatalf("error getting interval: %v", err)
		}

		svc, err := buildSyncService()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if err := svc.SyncPricesForSymbol(context.Background(), symbol, provider, interval); err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Printf("Synchronized prices for %s\n", symbol)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Synchronize recent prices for every active asset",
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := buildSyncService()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		if err := svc.SyncAllActiveAssets(context.Background()); err != nil {
			log.Fatalf("Error: %v", err)
		}

		fmt.Println("Synchronization complete")
	},
}

var rootCmd = &cobra.Command{
	Use:   "marketsync",
	Short: "One-shot synchronization jobs against the upstream market data provider",
}

func main() {
	instrumentsCmd.Flags().String("provider", "", "Restrict the catalog sync to one provider.")
	instrumentsCmd.Flags().String("kind", "", "Restrict the catalog sync to one instrument kind.")

	pricesCmd.Flags().String("symbol", "", "The symbol to synchronize.")
	pricesCmd.Flags().String("provider", "oanda", "The data provider for the symbol.")
	pricesCmd.Flags().String("interval", "", "The bar interval to synchronize.")
	pricesCmd.MarkFlagRequired("symbol")

	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(allCmd)

	rootCmd.Execute()
}
