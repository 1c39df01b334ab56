package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/digital-menu/api/internal/config"
	"github.com/digital-menu/api/internal/database"
	"github.com/digital-menu/api/internal/enum"
	"github.com/digital-menu/api/internal/logger"
	"github.com/digital-menu/api/internal/menu"
	"github.com/digital-menu/api/internal/order"
)

// emenu migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending PostgreSQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		fmt.Println("Running migrations…")
		return database.Migrate(cfg.DatabaseURL)
	},
}

// emenu migrate:down
var migrateDownCmd = &cobra.Command{
	Use:   "migrate:down",
	Short: "Roll back all PostgreSQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		fmt.Println("Rolling back migrations…")
		return database.MigrateDown(cfg.DatabaseURL)
	},
}

var seedMenu bool

// emenu seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the order counter and, with --menu, a sample menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logger.Init(cfg.AppEnv)
		ctx := context.Background()

		store, closeStore, err := openBackend(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.EnsureOrderCounter(ctx, order.DefaultCounterStart); err != nil {
			return fmt.Errorf("ensure order counter: %w", err)
		}
		fmt.Println("Order counter ready")

		if !seedMenu {
			return nil
		}
		for _, it := range sampleMenu() {
			if _, err := store.UpsertMenuItem(ctx, it); err != nil {
				return fmt.Errorf("seed %s: %w", it.ID, err)
			}
		}
		fmt.Printf("Seeded %d menu items\n", len(sampleMenu()))
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedMenu, "menu", false, "also upsert a sample menu")
}

func sampleMenu() []menu.Item {
	item := func(id, name, price string, cat menu.Category, desc string) menu.Item {
		return menu.Item{
			ID:          id,
			Name:        name,
			Price:       decimal.RequireFromString(price),
			Description: desc,
			Category:    cat,
			Status:      enum.MenuStatusAvailable,
		}
	}
	return []menu.Item{
		item("samosa", "Samosa", "60", menu.Appetizers, "Crisp pastry with spiced potato"),
		item("paneer-tikka", "Paneer Tikka", "249.50", menu.Appetizers, "Char-grilled cottage cheese"),
		item("veg-thali", "Veg Thali", "320", menu.Mains, "Dal, two sabzi, rice and roti"),
		item("butter-chicken", "Butter Chicken", "380", menu.Mains, "With butter naan"),
		item("gulab-jamun", "Gulab Jamun", "90", menu.Desserts, "Two pieces, warm"),
		item("masala-chai", "Masala Chai", "40", menu.Beverages, "Ginger and cardamom"),
		item("lime-soda", "Lime Soda", "70", menu.Beverages, "Sweet or salted"),
	}
}
