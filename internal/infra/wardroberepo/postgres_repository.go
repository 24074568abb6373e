package wardroberepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/internal/domain/recommendation"
)

// PostgresRepository reads wardrobe items from Postgres. The table is owned
// by the wardrobe service; this side only reads it.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListItems returns every garment owned by userID.
func (r *PostgresRepository) ListItems(ctx context.Context, userID int64) ([]outfit.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, slot, category, name, color_primary, style_tags, formality, season_tags
		FROM wardrobe_items
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query wardrobe: %w", err)
	}
	defer rows.Close()

	var items []outfit.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (outfit.Item, error) {
	var (
		item                  outfit.Item
		slot                  string
		category, name, color *string
		styleTags, seasonTags []string
	)
	if err := row.Scan(&item.ID, &slot, &category, &name, &color, &styleTags, &item.Formality, &seasonTags); err != nil {
		return outfit.Item{}, fmt.Errorf("scan wardrobe item: %w", err)
	}
	item.Slot = outfit.ParseSlot(slot)
	item.Category = deref(category)
	item.Name = deref(name)
	item.ColorPrimary = deref(color)
	item.StyleTags = styleTags
	item.SeasonTags = seasonTags
	return item, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ recommendation.WardrobeRepository = (*PostgresRepository)(nil)
