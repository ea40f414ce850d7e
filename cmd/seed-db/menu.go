package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-restaurant/internal/domain/menu"
)

//go:embed menu.json
var defaultMenu []byte

type menuFile struct {
	Categories []categorySeed `json:"categories"`
}

type categorySeed struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []itemSeed `json:"items"`
}

type itemSeed struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Available   *bool           `json:"available"`
	ImageURL    string          `json:"image_url"`
	Emoji       string          `json:"emoji"`
}

// loadMenu reads path, or the embedded menu when path is empty. Files ending
// in .gz are decompressed.
func loadMenu(path string) (*menuFile, error) {
	var r io.Reader = bytes.NewReader(defaultMenu)
	if path != "" {
		slog.Info("reading menu file", slog.String("path", path))
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open menu file")
		}
		defer func() { _ = f.Close() }()
		r = f

		if strings.HasSuffix(path, ".gz") {
			gz, err := pgzip.NewReader(f)
			if err != nil {
				return nil, errors.Wrap(err, "open gzip reader")
			}
			defer func() { _ = gz.Close() }()
			r = gz
		}
	}

	var m menuFile
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}
	for _, c := range m.Categories {
		if c.Name == "" {
			return nil, errors.New("category without a name")
		}
		for _, it := range c.Items {
			if !it.Price.IsPositive() {
				return nil, errors.Errorf("item %q in %q: price must be greater than 0", it.Name, c.Name)
			}
		}
	}
	return &m, nil
}

// seedMenu creates missing categories and items. Entries are matched by name,
// so running the seeder twice does not duplicate them.
func seedMenu(ctx context.Context, repo menu.Repository, m *menuFile) error {
	existing, err := repo.ListCategories(ctx)
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	var createErr error
	for _, cs := range m.Categories {
		if gCtx.Err() != nil {
			break
		}
		id, ok := byName[cs.Name]
		if !ok {
			c := &menu.Category{Name: cs.Name, Description: cs.Description}
			if err := repo.CreateCategory(gCtx, c); err != nil {
				createErr = errors.Wrapf(err, "create category %s", cs.Name)
				break
			}
			id = c.ID
			slog.Info("created category", slog.String("id", id), slog.String("name", cs.Name))
		}

		g.Go(func() error {
			return seedItems(gCtx, repo, id, cs.Items)
		})
	}
	// A failed worker cancels gCtx, which is what usually stops the loop, so
	// its error takes precedence.
	if err := g.Wait(); err != nil {
		return err
	}
	if createErr != nil {
		return createErr
	}
	return ctx.Err()
}

func seedItems(ctx context.Context, repo menu.Repository, categoryID string, items []itemSeed) error {
	existing, err := repo.ListItems(ctx, categoryID)
	if err != nil {
		return errors.Wrapf(err, "list items of %s", categoryID)
	}
	have := make(map[string]bool, len(existing))
	for _, it := range existing {
		have[it.Name] = true
	}

	now := time.Now().UTC()
	for _, s := range items {
		if have[s.Name] {
			continue
		}
		available := true
		if s.Available != nil {
			available = *s.Available
		}
		it := &menu.Item{
			Name:        s.Name,
			Description: s.Description,
			Price:       s.Price,
			CategoryID:  categoryID,
			Available:   available,
			ImageURL:    s.ImageURL,
			Emoji:       s.Emoji,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateItem(ctx, it); err != nil {
			return errors.Wrapf(err, "create item %s", s.Name)
		}
		slog.Info("created menu item", slog.String("id", it.ID), slog.String("name", s.Name))
	}
	return nil
}
