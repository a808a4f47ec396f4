package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pkaravayeu/paylater/internal/config"
	"github.com/pkaravayeu/paylater/internal/domain/enums"
	"github.com/pkaravayeu/paylater/internal/infra/logger"
	pgrepo "github.com/pkaravayeu/paylater/internal/repo/postgres"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
)

type seedProduct struct {
	category    string
	name        string
	description string
	price       string
	stock       int
}

var seedCategories = []struct {
	name        string
	description string
}{
	{"Electronics", "Phones, laptops and accessories"},
	{"Appliances", "Home and kitchen appliances"},
	{"Furniture", "Tables, chairs and storage"},
}

var seedProducts = []seedProduct{
	{"Electronics", "Smartphone X200", "6.1 inch OLED, 256 GB", "799.00", 25},
	{"Electronics", "Laptop Pro 14", "14 inch, 16 GB RAM, 512 GB SSD", "1499.00", 10},
	{"Electronics", "Wireless Earbuds", "Noise cancelling, USB-C case", "129.00", 60},
	{"Appliances", "Robot Vacuum", "Lidar navigation, self-empty dock", "449.00", 15},
	{"Appliances", "Espresso Machine", "19 bar pump, milk frother", "299.00", 20},
	{"Furniture", "Standing Desk", "Electric height adjust, 140x70 cm", "549.00", 8},
}

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	userRepo := pgrepo.NewUserRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	productRepo := pgrepo.NewProductRepo(pool)

	authService := authsvc.NewService(authsvc.Dependencies{Users: userRepo})

	adminName := envOrDefault("SEED_ADMIN_NAME", "Admin")
	adminEmail := envOrDefault("SEED_ADMIN_EMAIL", "admin@paylater.local")
	adminPassword := envOrDefault("SEED_ADMIN_PASSWORD", "admin123")

	admin, err := authService.EnsureUser(ctx, adminName, adminEmail, adminPassword, enums.RoleAdmin)
	if err != nil {
		log.Fatal("ensure admin user", zap.Error(err))
	}
	log.Info("admin user ready", zap.Int64("user_id", admin.ID), zap.String("email", admin.Email))

	categoryIDs := make(map[string]int64, len(seedCategories))
	for _, c := range seedCategories {
		record, err := categoryRepo.UpsertByName(ctx, c.name, c.description)
		if err != nil {
			log.Fatal("upsert category", zap.String("name", c.name), zap.Error(err))
		}
		categoryIDs[record.Name] = record.ID
	}
	log.Info("categories ready", zap.Int("count", len(categoryIDs)))

	for _, p := range seedProducts {
		categoryID, ok := categoryIDs[p.category]
		if !ok {
			log.Fatal("unknown seed category", zap.String("category", p.category))
		}
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			log.Fatal("parse seed price", zap.String("name", p.name), zap.Error(err))
		}
		if _, err := productRepo.UpsertByName(ctx, categoryID, p.name, p.description, price, p.stock); err != nil {
			log.Fatal("upsert product", zap.String("name", p.name), zap.Error(err))
		}
	}
	log.Info("products ready", zap.Int("count", len(seedProducts)))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
