// Package main seeds the database with development data: a cashier, a
// customer, products with lots and a bill sold from multiple lots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"minipos/internal/core/id"
	"minipos/internal/core/types"
	"minipos/internal/domain/auth"
	"minipos/internal/domain/catalogs/customer"
	"minipos/internal/domain/catalogs/product"
	"minipos/internal/domain/registers/lotstock"
	"minipos/internal/infrastructure/storage/postgres"
	"minipos/internal/infrastructure/storage/postgres/auth_repo"
	"minipos/internal/infrastructure/storage/postgres/catalog_repo"
	"minipos/internal/infrastructure/storage/postgres/register_repo"
	"minipos/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	userRepo := auth_repo.NewUserRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	lotRepo := register_repo.NewLotStockRepo(txManager)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Cashier account
		hash, err := auth.HashPassword("cashier123")
		if err != nil {
			return err
		}
		cashier := &auth.User{
			ID:           id.New(),
			Username:     "cashier1",
			Name:         "Demo Cashier",
			PasswordHash: hash,
			Role:         auth.RoleCashier,
		}
		if err := userRepo.Create(ctx, cashier); err != nil {
			return err
		}

		// Customer
		cust := &customer.Customer{
			ID:    id.New(),
			Name:  "Walk-in Customer",
			Phone: "0123456789",
		}
		if err := customerRepo.Create(ctx, cust); err != nil {
			return err
		}

		// Products with lots
		aspirin := &product.Product{
			ID:            id.New(),
			SKU:           "ASP-500",
			Name:          "Aspirin 500mg",
			UnitPrice:     types.MustMoney("10.00"),
			StockQuantity: 92,
		}
		tea := &product.Product{
			ID:            id.New(),
			SKU:           "TEA-GRN",
			Name:          "Green Tea",
			UnitPrice:     types.MustMoney("4.50"),
			StockQuantity: 48,
		}
		for _, p := range []*product.Product{aspirin, tea} {
			if err := productRepo.Create(ctx, p); err != nil {
				return err
			}
		}

		lot1 := &lotstock.LotStock{
			ID:              id.New(),
			ProductID:       aspirin.ID,
			LotNumber:       "ASP-2026-A",
			CurrentQuantity: 0,
			InventoryStatus: lotstock.StatusInactive,
			ExpiresAt:       expiry(1, 0),
		}
		lot2 := &lotstock.LotStock{
			ID:              id.New(),
			ProductID:       aspirin.ID,
			LotNumber:       "ASP-2026-B",
			CurrentQuantity: 92,
			InventoryStatus: lotstock.StatusActive,
			ExpiresAt:       expiry(1, 6),
		}
		lot3 := &lotstock.LotStock{
			ID:              id.New(),
			ProductID:       tea.ID,
			LotNumber:       "TEA-2026-A",
			CurrentQuantity: 48,
			InventoryStatus: lotstock.StatusActive,
			ExpiresAt:       expiry(0, 8),
		}
		for _, l := range []*lotstock.LotStock{lot1, lot2, lot3} {
			if err := lotRepo.Create(ctx, l); err != nil {
				return err
			}
		}

		// Bill sold from two aspirin lots plus tea, fresh enough to be
		// returnable.
		billID := id.New()
		querier := txManager.GetQuerier(ctx)
		_, err = querier.Exec(ctx, `
			INSERT INTO doc_bills (id, number, customer_id, total_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, billID, "B-00001", cust.ID, types.MustMoney("89.00"))
		if err != nil {
			return err
		}

		lines := []struct {
			lineNo    int
			productID id.ID
			lotID     id.ID
			name      string
			qty       int
			price     types.Money
		}{
			{1, aspirin.ID, lot1.ID, aspirin.Name, 3, aspirin.UnitPrice},
			{2, aspirin.ID, lot2.ID, aspirin.Name, 5, aspirin.UnitPrice},
			{3, tea.ID, lot3.ID, tea.Name, 2, tea.UnitPrice},
		}
		for _, l := range lines {
			_, err = querier.Exec(ctx, `
				INSERT INTO doc_bill_lines (id, bill_id, line_no, product_id, lot_id, product_name, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, id.New(), billID, l.lineNo, l.productID, l.lotID, l.name, l.qty, l.price)
			if err != nil {
				return err
			}
		}

		log.Infow("seed complete",
			"cashier", cashier.Username,
			"bill", "B-00001",
			"customer_phone", cust.Phone,
		)
		return nil
	})
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}
}

func expiry(years, months int) *time.Time {
	t := time.Now().AddDate(years, months, 0)
	return &t
}
