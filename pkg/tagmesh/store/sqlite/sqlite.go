// Package sqlite persists the tag graph in a cgo-free SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	parent_id TEXT,
	previous_item_count INTEGER NOT NULL DEFAULT 0,
	trend_calculated_at TEXT
);

CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	title TEXT
);

CREATE TABLE IF NOT EXISTS item_tags (
	item_id TEXT NOT NULL,
	tag_id TEXT NOT NULL,
	PRIMARY KEY(item_id, tag_id),
	FOREIGN KEY(item_id) REFERENCES items(id) ON DELETE CASCADE,
	FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	name TEXT
);

CREATE TABLE IF NOT EXISTS board_rule_tags (
	board_id TEXT NOT NULL,
	tag_id TEXT NOT NULL,
	PRIMARY KEY(board_id, tag_id),
	FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE,
	FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_item_tags_tag ON item_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_tags_parent ON tags(parent_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertTag writes the tag row and replaces its membership edges. Items
// referenced by ItemIDs must already exist.
func (s *sqliteStore) UpsertTag(ctx context.Context, t store.Tag) error {
	if t.ID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var trendAt interface{}
	if !t.TrendCalculatedAt.IsZero() {
		trendAt = t.TrendCalculatedAt.UTC().Format(time.RFC3339Nano)
	}
	var parent interface{}
	if t.ParentID != "" {
		parent = t.ParentID
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO tags (id, name, parent_id, previous_item_count, trend_calculated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	parent_id = excluded.parent_id,
	previous_item_count = excluded.previous_item_count,
	trend_calculated_at = excluded.trend_calculated_at`,
		t.ID, t.Name, parent, t.PreviousItemCount, trendAt)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_tags WHERE tag_id = ?", t.ID); err != nil {
		return err
	}
	// Edges to items that don't exist yet are dropped rather than tripping
	// the foreign key; the membership edge is recorded when the item side
	// is written.
	for _, itemID := range t.ItemIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO item_tags (item_id, tag_id)
SELECT ?, ? WHERE EXISTS (SELECT 1 FROM items WHERE id = ?)`, itemID, t.ID, itemID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTag returns a tag by id.
func (s *sqliteStore) GetTag(ctx context.Context, id string) (store.Tag, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, COALESCE(parent_id, ''), previous_item_count, COALESCE(trend_calculated_at, '')
FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return store.Tag{}, false, nil
	}
	if err != nil {
		return store.Tag{}, false, err
	}

	t.ItemIDs, err = s.tagItems(ctx, id)
	if err != nil {
		return store.Tag{}, false, err
	}
	return t, true, nil
}

// AllTags returns every tag sorted by name then id.
func (s *sqliteStore) AllTags(ctx context.Context) ([]store.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, COALESCE(parent_id, ''), previous_item_count, COALESCE(trend_calculated_at, '')
FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []store.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := s.allEdges(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tags {
		tags[i].ItemIDs = edges.itemsByTag[tags[i].ID]
	}
	return tags, nil
}

// DeleteTag removes a tag; membership and rule edges cascade.
func (s *sqliteStore) DeleteTag(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	return err
}

// UpsertItem writes the item row and replaces its membership edges. Tags
// referenced by TagIDs must already exist.
func (s *sqliteStore) UpsertItem(ctx context.Context, it store.Item) error {
	if it.ID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO items (id, title) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET title = excluded.title`, it.ID, it.Title)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM item_tags WHERE item_id = ?", it.ID); err != nil {
		return err
	}
	for _, tagID := range it.TagIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO item_tags (item_id, tag_id)
SELECT ?, ? WHERE EXISTS (SELECT 1 FROM tags WHERE id = ?)`, it.ID, tagID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetItem returns an item by id.
func (s *sqliteStore) GetItem(ctx context.Context, id string) (store.Item, bool, error) {
	var it store.Item
	err := s.db.QueryRowContext(ctx,
		"SELECT id, COALESCE(title, '') FROM items WHERE id = ?", id).Scan(&it.ID, &it.Title)
	if err == sql.ErrNoRows {
		return store.Item{}, false, nil
	}
	if err != nil {
		return store.Item{}, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT tag_id FROM item_tags WHERE item_id = ? ORDER BY tag_id", id)
	if err != nil {
		return store.Item{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return store.Item{}, false, err
		}
		it.TagIDs = append(it.TagIDs, tagID)
	}
	if err := rows.Err(); err != nil {
		return store.Item{}, false, err
	}
	return it, true, nil
}

// AllItems returns every item sorted by title then id.
func (s *sqliteStore) AllItems(ctx context.Context) ([]store.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, COALESCE(title, '') FROM items ORDER BY title, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.ID, &it.Title); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := s.allEdges(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].TagIDs = edges.tagsByItem[items[i].ID]
	}
	return items, nil
}

// DeleteItem removes an item; membership edges cascade.
func (s *sqliteStore) DeleteItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	return err
}

// UpsertBoard writes the board row and replaces its rule edges.
func (s *sqliteStore) UpsertBoard(ctx context.Context, b store.Board) error {
	if b.ID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO boards (id, name) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name`, b.ID, b.Name)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM board_rule_tags WHERE board_id = ?", b.ID); err != nil {
		return err
	}
	for _, tagID := range b.RuleTagIDs {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO board_rule_tags (board_id, tag_id)
SELECT ?, ? WHERE EXISTS (SELECT 1 FROM tags WHERE id = ?)`, b.ID, tagID, tagID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetBoard returns a board by id.
func (s *sqliteStore) GetBoard(ctx context.Context, id string) (store.Board, bool, error) {
	var b store.Board
	err := s.db.QueryRowContext(ctx,
		"SELECT id, COALESCE(name, '') FROM boards WHERE id = ?", id).Scan(&b.ID, &b.Name)
	if err == sql.ErrNoRows {
		return store.Board{}, false, nil
	}
	if err != nil {
		return store.Board{}, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT tag_id FROM board_rule_tags WHERE board_id = ? ORDER BY tag_id", id)
	if err != nil {
		return store.Board{}, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return store.Board{}, false, err
		}
		b.RuleTagIDs = append(b.RuleTagIDs, tagID)
	}
	if err := rows.Err(); err != nil {
		return store.Board{}, false, err
	}
	return b, true, nil
}

// AllBoards returns every board sorted by name then id.
func (s *sqliteStore) AllBoards(ctx context.Context) ([]store.Board, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, COALESCE(name, '') FROM boards ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []store.Board
	for rows.Next() {
		var b store.Board
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ruleRows, err := s.db.QueryContext(ctx,
		"SELECT board_id, tag_id FROM board_rule_tags ORDER BY board_id, tag_id")
	if err != nil {
		return nil, err
	}
	defer ruleRows.Close()
	rules := make(map[string][]string)
	for ruleRows.Next() {
		var boardID, tagID string
		if err := ruleRows.Scan(&boardID, &tagID); err != nil {
			return nil, err
		}
		rules[boardID] = append(rules[boardID], tagID)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, err
	}
	for i := range boards {
		boards[i].RuleTagIDs = rules[boards[i].ID]
	}
	return boards, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTag(row scanner) (store.Tag, error) {
	var t store.Tag
	var trendAt string
	if err := row.Scan(&t.ID, &t.Name, &t.ParentID, &t.PreviousItemCount, &trendAt); err != nil {
		return store.Tag{}, err
	}
	if trendAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, trendAt)
		if err != nil {
			return store.Tag{}, fmt.Errorf("parse trend timestamp for tag %s: %w", t.ID, err)
		}
		t.TrendCalculatedAt = parsed
	}
	return t, nil
}

func (s *sqliteStore) tagItems(ctx context.Context, tagID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id FROM item_tags WHERE tag_id = ? ORDER BY item_id", tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var itemIDs []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			return nil, err
		}
		itemIDs = append(itemIDs, itemID)
	}
	return itemIDs, rows.Err()
}

type edgeIndex struct {
	itemsByTag map[string][]string
	tagsByItem map[string][]string
}

func (s *sqliteStore) allEdges(ctx context.Context) (edgeIndex, error) {
	idx := edgeIndex{
		itemsByTag: make(map[string][]string),
		tagsByItem: make(map[string][]string),
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, tag_id FROM item_tags ORDER BY item_id, tag_id")
	if err != nil {
		return idx, err
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, tagID string
		if err := rows.Scan(&itemID, &tagID); err != nil {
			return idx, err
		}
		idx.itemsByTag[tagID] = append(idx.itemsByTag[tagID], itemID)
		idx.tagsByItem[itemID] = append(idx.tagsByItem[itemID], tagID)
	}
	return idx, rows.Err()
}
