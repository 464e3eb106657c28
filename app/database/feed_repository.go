package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepositoryImpl)(nil)

type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

const feedColumns = `id, title, url, active, category, last_updated, sort_reversed,
       latest_summary, latest_link, created_at, updated_at`

func (r *FeedRepositoryImpl) scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	var lastUpdated sql.NullTime
	err := row.Scan(
		&feed.ID, &feed.Title, &feed.URL, &feed.Active, &feed.Category,
		&lastUpdated, &feed.SortReversed, &feed.LatestSummary, &feed.LatestLink,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		feed.LastUpdated = lastUpdated.Time.UTC()
	}
	return &feed, nil
}

func (r *FeedRepositoryImpl) GetByTitle(title string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE title = ?`, title)

	feed, err := r.scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by title: %w", err)
	}

	return feed, nil
}

func (r *FeedRepositoryImpl) GetByURL(url string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE url = ? LIMIT 1`, url)

	feed, err := r.scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}

	return feed, nil
}

func (r *FeedRepositoryImpl) GetAll() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM feeds ORDER BY title`)
}

func (r *FeedRepositoryImpl) GetActive() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM feeds WHERE active = 1 ORDER BY title`)
}

func (r *FeedRepositoryImpl) queryFeeds(query string, args ...any) ([]Feed, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepositoryImpl) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feeds: %w", err)
	}
	return count, nil
}

func (r *FeedRepositoryImpl) GetActiveCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM feeds WHERE active = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active feeds: %w", err)
	}
	return count, nil
}

func (r *FeedRepositoryImpl) Create(title, url, category string, active bool) (*Feed, error) {
	finalTitle, err := r.resolveTitle(title, 0)
	if err != nil {
		return nil, err
	}

	res, err := r.db.Exec(`
		INSERT INTO feeds (title, url, active, category)
		VALUES (?, ?, ?, ?)
	`, finalTitle, url, active, category)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted feed id: %w", err)
	}

	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
	feed, err := r.scanFeed(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read back created feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepositoryImpl) UpdateLatest(id int64, lastUpdated time.Time, latestSummary, latestLink string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_updated = ?, latest_summary = ?, latest_link = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, lastUpdated.UTC(), latestSummary, latestLink, id)
	if err != nil {
		return fmt.Errorf("failed to update feed latest state: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) SetActive(id int64, active bool) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set feed active flag: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) SetCategory(id int64, category string) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET category = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, category, id)
	if err != nil {
		return fmt.Errorf("failed to set feed category: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) SetSortReversed(id int64, reversed bool) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET sort_reversed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, reversed, id)
	if err != nil {
		return fmt.Errorf("failed to set feed sort direction: %w", err)
	}
	return nil
}

func (r *FeedRepositoryImpl) Rename(id int64, newTitle string) (string, error) {
	finalTitle, err := r.resolveTitle(newTitle, id)
	if err != nil {
		return "", err
	}

	_, err = r.db.Exec(`
		UPDATE feeds SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, finalTitle, id)
	if err != nil {
		return "", fmt.Errorf("failed to rename feed: %w", err)
	}

	return finalTitle, nil
}

func (r *FeedRepositoryImpl) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// resolveTitle returns title if unused, otherwise the first free "title~#N"
// starting at N=2. selfID excludes the record being renamed from the check.
func (r *FeedRepositoryImpl) resolveTitle(title string, selfID int64) (string, error) {
	taken, err := r.titleTaken(title, selfID)
	if err != nil {
		return "", err
	}
	if !taken {
		return title, nil
	}

	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s~#%d", title, i)
		taken, err := r.titleTaken(candidate, selfID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (r *FeedRepositoryImpl) titleTaken(title string, selfID int64) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM feeds WHERE title = ? AND id != ?
	`, title, selfID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check title availability: %w", err)
	}
	return count > 0, nil
}
