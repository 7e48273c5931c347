package database

import (
	"database/sql"
	"fmt"
	"time"
)

// purgeFloorTs guards against purging rows whose timestamp never parsed:
// anything at or below this value (including the 0 sentinel) is kept forever.
const purgeFloorTs = 1000000000000

// DefaultPurgeMaxAge is the retention horizon used when no explicit one is
// configured.
const DefaultPurgeMaxAge = 168 * time.Hour

// ItemRepository handles database operations for indexed items
type ItemRepository struct {
	db *DB
}

var _ ItemStore = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, guid, category, raw_title, title, year, episode,
       size, seeders, quality, added_at, added_at_ts, poster,
       page_link, download_link, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.GUID, &item.Category, &item.RawTitle, &item.Title,
		&item.Year, &item.Episode, &item.Size, &item.Seeders, &item.Quality,
		&item.AddedAt, &item.AddedAtTs, &item.Poster,
		&item.PageLink, &item.DownloadLink, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByGUID returns the stored item for a GUID, or nil when absent.
func (r *ItemRepository) GetItemByGUID(guid string) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE guid = ?`, guid)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by guid: %w", err)
	}

	return item, nil
}

// InsertItem stores a newly discovered item.
func (r *ItemRepository) InsertItem(item Item) error {
	_, err := r.db.Exec(`
		INSERT INTO items (
			guid, category, raw_title, title, year, episode,
			size, seeders, quality, added_at, added_at_ts, poster,
			page_link, download_link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.GUID, item.Category, item.RawTitle, item.Title, item.Year, item.Episode,
		item.Size, item.Seeders, item.Quality, item.AddedAt, item.AddedAtTs, item.Poster,
		item.PageLink, item.DownloadLink)

	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// UpdateItemSyncFields refreshes the volatile fields of an existing item.
// Seeders always overwrites; size and added_at only replace empty stored
// values, so a later sparse feed entry cannot erase data an earlier richer
// one provided. Title, year and poster are never touched after insert.
func (r *ItemRepository) UpdateItemSyncFields(guid string, update SyncUpdate) error {
	_, err := r.db.Exec(`
		UPDATE items SET
			seeders = ?,
			size = COALESCE(NULLIF(?, ''), size),
			added_at = COALESCE(NULLIF(?, ''), added_at),
			added_at_ts = CASE WHEN ? > 0 THEN ? ELSE added_at_ts END,
			updated_at = datetime('now')
		WHERE guid = ?
	`, update.Seeders, update.Size, update.AddedAt,
		update.AddedAtTs, update.AddedAtTs, guid)

	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

// GetItems returns items for a category, ordered per the requested sort.
// The sort key maps to a fixed ORDER BY clause; anything unrecognized falls
// back to seeders. A negative limit returns every row.
func (r *ItemRepository) GetItems(category string, sort string, limit int) ([]Item, error) {
	var orderBy string
	switch sort {
	case "date":
		orderBy = "added_at_ts DESC"
	case "title", "name":
		orderBy = "title COLLATE NOCASE ASC"
	default:
		orderBy = "seeders DESC"
	}

	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE category = ?
		ORDER BY `+orderBy+`
		LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// GetItemCount returns the number of stored items for a category.
func (r *ItemRepository) GetItemCount(category string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items WHERE category = ?", category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// PurgeOlderThan deletes items whose tracker date is older than maxAge.
// Items with an unknown date are never purged.
func (r *ItemRepository) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()

	result, err := r.db.Exec(`
		DELETE FROM items
		WHERE added_at_ts > ? AND added_at_ts < ?
	`, purgeFloorTs, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge items: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged items: %w", err)
	}

	return purged, nil
}
