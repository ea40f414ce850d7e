package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-restaurant/internal/app"
	"github.com/xenking/pos-restaurant/internal/domain/user"
)

type account struct {
	email    string
	fullName string
	password string
	role     user.Role
}

func main() {
	var (
		storage       app.StorageConfig
		menuFile      string
		adminEmail    string
		adminPassword string
		staffEmail    string
		staffPassword string
	)

	flag.StringVar(&storage.Driver, "driver", app.DriverMongo, "storage driver: mongo or postgres")
	flag.StringVar(&storage.MongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGO_URI env)")
	flag.StringVar(&storage.MongoDatabase, "mongo-database", "pos_restaurant", "MongoDB database name (or DATABASE_NAME env)")
	flag.StringVar(&storage.PostgresURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "menu JSON file, optionally .gz compressed; the built-in menu when empty")
	flag.StringVar(&adminEmail, "admin-email", "admin@restaurant.com", "email of the seeded admin user")
	flag.StringVar(&adminPassword, "admin-password", "", "password of the seeded admin user (or POS_SEED_ADMIN_PASSWORD env)")
	flag.StringVar(&staffEmail, "staff-email", "staff@restaurant.com", "email of the seeded staff user, empty to skip")
	flag.StringVar(&staffPassword, "staff-password", "", "password of the seeded staff user (or POS_SEED_STAFF_PASSWORD env)")
	flag.Parse()

	if storage.MongoURI == "" {
		storage.MongoURI = os.Getenv("MONGO_URI")
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		storage.MongoDatabase = v
	}
	if storage.PostgresURL == "" {
		storage.PostgresURL = os.Getenv("DATABASE_URL")
	}
	switch {
	case storage.Driver == app.DriverMongo && storage.MongoURI == "":
		slog.Error("mongo URI is required: set --mongo-uri or MONGO_URI")
		os.Exit(1)
	case storage.Driver == app.DriverPostgres && storage.PostgresURL == "":
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	if adminPassword == "" {
		adminPassword = os.Getenv("POS_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or POS_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}
	accounts := []account{{email: adminEmail, fullName: "Admin User", password: adminPassword, role: user.RoleAdmin}}
	if staffEmail != "" {
		if staffPassword == "" {
			staffPassword = os.Getenv("POS_SEED_STAFF_PASSWORD")
		}
		if staffPassword == "" {
			slog.Error("staff password is required: set --staff-password or POS_SEED_STAFF_PASSWORD")
			os.Exit(1)
		}
		accounts = append(accounts, account{email: staffEmail, fullName: "Staff User", password: staffPassword, role: user.RoleStaff})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, storage, menuFile, accounts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, storage app.StorageConfig, menuFile string, accounts []account) error {
	slog.Info("connecting to storage", slog.String("driver", storage.Driver))

	store, err := app.OpenStore(ctx, storage)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	seed, err := loadMenu(menuFile)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}

	if err := seedMenu(ctx, store.Menu, seed); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if err := seedUsers(ctx, store.Users, accounts); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

func seedUsers(ctx context.Context, users user.Repository, accounts []account) error {
	directory := user.NewDirectory(users, user.DirectoryConfig{})
	for _, a := range accounts {
		_, err := directory.Register(ctx, user.Registration{
			Email:    a.email,
			FullName: a.fullName,
			Password: a.password,
			Role:     a.role,
		})
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			slog.Info("user already exists", slog.String("email", a.email))
		case err != nil:
			return errors.Wrapf(err, "register %s", a.email)
		default:
			slog.Info("created user", slog.String("email", a.email), slog.String("role", string(a.role)))
		}
	}
	return nil
}
