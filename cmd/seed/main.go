package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jualapa/internal/config"
	"jualapa/internal/db"
	"jualapa/internal/logger"
	"jualapa/internal/model"
	"jualapa/internal/repository"
)

// catalogFile is the layout of the seed YAML.
type catalogFile struct {
	Ingredients []catalogEntry `yaml:"ingredients"`
	Packaging   []catalogEntry `yaml:"packaging"`
	Tools       []catalogEntry `yaml:"tools"`
}

type catalogEntry struct {
	Name          string `yaml:"name"`
	Amount        string `yaml:"amount"`
	Price         string `yaml:"price"`
	Image         string `yaml:"image"`
	ImagePublicID string `yaml:"image_public_id"`
}

// adminStore is the slice of the user repository the seeder touches.
type adminStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, zl)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	zl.Info("database ready")

	ctx := context.Background()

	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		created, err := ensureAdmin(ctx, repository.NewUserRepository(gormDB),
			email, getEnv("ADMIN_USERNAME", "admin"), os.Getenv("ADMIN_PASSWORD"))
		if err != nil {
			zl.Fatal("seed admin", zap.Error(err))
		}
		zl.Info("admin ready", zap.String("email", email), zap.Bool("created", created))
	} else {
		zl.Info("ADMIN_EMAIL not set, skipping admin")
	}

	path := getEnv("SEED_FILE", "seed/catalog.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		zl.Fatal("read seed file", zap.String("path", path), zap.Error(err))
	}
	items, err := parseCatalog(data)
	if err != nil {
		zl.Fatal("parse seed file", zap.String("path", path), zap.Error(err))
	}

	catalog := repository.NewCatalogRepository(gormDB)
	for i := range items {
		if err := catalog.UpsertByName(ctx, &items[i]); err != nil {
			zl.Fatal("upsert catalog item",
				zap.String("kind", string(items[i].Kind)),
				zap.String("name", items[i].Name),
				zap.Error(err),
			)
		}
	}
	zl.Info("seed completed", zap.Int("catalog_items", len(items)))
}

// parseCatalog decodes the seed YAML into catalog rows ready for upsert.
func parseCatalog(data []byte) ([]model.CatalogItem, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	groups := []struct {
		kind    model.CatalogKind
		entries []catalogEntry
	}{
		{model.KindIngredient, file.Ingredients},
		{model.KindPackaging, file.Packaging},
		{model.KindTool, file.Tools},
	}

	var items []model.CatalogItem
	for _, g := range groups {
		for _, e := range g.entries {
			name := strings.TrimSpace(e.Name)
			if name == "" {
				return nil, fmt.Errorf("%s entry without a name", g.kind)
			}
			price, err := decimal.NewFromString(e.Price)
			if err != nil {
				return nil, fmt.Errorf("%s %q: invalid price %q", g.kind, name, e.Price)
			}
			if price.IsNegative() {
				return nil, fmt.Errorf("%s %q: price must not be negative", g.kind, name)
			}
			items = append(items, model.CatalogItem{
				Kind:          g.kind,
				Name:          name,
				Amount:        e.Amount,
				Price:         price,
				Image:         e.Image,
				ImagePublicID: e.ImagePublicID,
			})
		}
	}
	return items, nil
}

// ensureAdmin creates a verified admin, or promotes and verifies the existing
// account with that email. It reports whether a new account was created.
func ensureAdmin(ctx context.Context, users adminStore, email, username, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Role = model.RoleAdmin
		existing.IsVerified = true
		if password != "" && !existing.IsOAuth {
			existing.Password = password
		}
		if err := users.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("promote %s: %w", email, err)
		}
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("find %s: %w", email, err)
	}

	if len(password) < 6 {
		return false, errors.New("ADMIN_PASSWORD must be at least 6 characters")
	}
	admin := &model.User{
		Username:   username,
		Email:      email,
		Password:   password,
		Role:       model.RoleAdmin,
		IsVerified: true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create %s: %w", email, err)
	}
	return true, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
