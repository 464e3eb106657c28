package database

import (
	"database/sql"
	"fmt"
)

var _ EntryRepository = (*EntryRepositoryImpl)(nil)

type EntryRepositoryImpl struct {
	db *DB
}

func NewEntryRepository(db *DB) *EntryRepositoryImpl {
	return &EntryRepositoryImpl{db: db}
}

func (r *EntryRepositoryImpl) GetEntries(feedID int64, limit int) ([]Entry, error) {
	query := `
		SELECT id, feed_id, title, published_at, summary, link, position
		FROM entries
		WHERE feed_id = ?
		ORDER BY position ASC`
	args := []any{feedID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var publishedAt sql.NullTime
		err := rows.Scan(&entry.ID, &entry.FeedID, &entry.Title, &publishedAt,
			&entry.Summary, &entry.Link, &entry.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if publishedAt.Valid {
			entry.PublishedAt = publishedAt.Time.UTC()
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

func (r *EntryRepositoryImpl) GetCount(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (r *EntryRepositoryImpl) HasEntries(feedID int64) (bool, error) {
	count, err := r.GetCount(feedID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EntryRepositoryImpl) Populate(feedID int64, entries []Entry) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE feed_id = ?`, feedID); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	for i, entry := range entries {
		if err := insertEntry(tx, feedID, entry, i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}

	return nil
}

func (r *EntryRepositoryImpl) Prepend(feedID int64, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var minPos sql.NullInt64
	err = tx.QueryRow(`SELECT MIN(position) FROM entries WHERE feed_id = ?`, feedID).Scan(&minPos)
	if err != nil {
		return fmt.Errorf("failed to find minimum position: %w", err)
	}

	base := 0
	if minPos.Valid {
		base = int(minPos.Int64) - len(entries)
	}

	for i, entry := range entries {
		if err := insertEntry(tx, feedID, entry, base+i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}

	return nil
}

func (r *EntryRepositoryImpl) Prune(feedID int64, keep int) error {
	if keep <= 0 {
		return nil
	}

	_, err := r.db.Exec(`
		DELETE FROM entries
		WHERE feed_id = ?
		  AND id NOT IN (
			SELECT id FROM entries WHERE feed_id = ? ORDER BY position ASC LIMIT ?
		  )
	`, feedID, feedID, keep)
	if err != nil {
		return fmt.Errorf("failed to prune entries: %w", err)
	}

	return nil
}

func insertEntry(tx *sql.Tx, feedID int64, entry Entry, position int) error {
	var publishedAt any
	if !entry.PublishedAt.IsZero() {
		publishedAt = entry.PublishedAt.UTC()
	}

	_, err := tx.Exec(`
		INSERT INTO entries (feed_id, title, published_at, summary, link, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`, feedID, entry.Title, publishedAt, entry.Summary, entry.Link, position)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}
