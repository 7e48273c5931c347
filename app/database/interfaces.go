package database

import "time"

// ItemStore is the repository surface the sync tasks and the API consume.
type ItemStore interface {
	GetItemByGUID(guid string) (*Item, error)
	InsertItem(item Item) error
	UpdateItemSyncFields(guid string, update SyncUpdate) error

	GetItems(category string, sort string, limit int) ([]Item, error)
	GetItemCount(category string) (int, error)

	PurgeOlderThan(maxAge time.Duration) (int64, error)
}
