// Package storage persists cards, review logs, and sources in sqlite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conorfennell/practicebank/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, front, back, card_type, parent_list_id, list_position,
	target_item, context_items, content_hash, source_id,
	stability, difficulty, elapsed_days, scheduled_days, reps, lapses, state,
	due_date, last_review,
	is_active, is_golden_ticket, maturity_state, retired_at, resurrect_count,
	activation_status, suspend_reason, suspended_at`

// InsertCard inserts a new card into the database.
func (db *DB) InsertCard(card domain.Card) error {
	return db.execInsertCard(db.conn, card)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (db *DB) execInsertCard(e execer, card domain.Card) error {
	contextJSON, err := marshalContext(card.ContextItems)
	if err != nil {
		return fmt.Errorf("failed to encode context for card %s: %w", card.ID, err)
	}

	_, err = e.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.Front,
		card.Back,
		string(card.Type),
		nullString(card.ParentListID),
		card.ListPosition,
		nullString(card.TargetItem),
		contextJSON,
		nullString(card.ContentHash),
		nullInt64(card.SourceID),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		card.State,
		nullTimeValue(card.Due),
		nullTimePtr(card.LastReview),
		card.IsActive,
		card.IsGoldenTicket,
		string(card.Maturity),
		nullTimePtr(card.RetiredAt),
		card.ResurrectCount,
		string(card.ActivationStatus),
		nullString(card.SuspendReason),
		nullTimePtr(card.SuspendedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// InsertCards inserts a batch of cards in one transaction, all or
// nothing. Used for generated lists, where a partial sibling set would
// corrupt list-health aggregation.
func (db *DB) InsertCards(cards []domain.Card) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin card insert transaction: %w", err)
	}
	defer tx.Rollback()

	for _, card := range cards {
		if err := db.execInsertCard(tx, card); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateCard rewrites a card's mutable fields.
func (db *DB) UpdateCard(card domain.Card) error {
	return db.execUpdateCard(db.conn, card)
}

func (db *DB) execUpdateCard(e execer, card domain.Card) error {
	contextJSON, err := marshalContext(card.ContextItems)
	if err != nil {
		return fmt.Errorf("failed to encode context for card %s: %w", card.ID, err)
	}

	res, err := e.Exec(`
		UPDATE cards
		SET front = ?, back = ?, card_type = ?, parent_list_id = ?, list_position = ?,
			target_item = ?, context_items = ?, content_hash = ?, source_id = ?,
			stability = ?, difficulty = ?, elapsed_days = ?, scheduled_days = ?,
			reps = ?, lapses = ?, state = ?, due_date = ?, last_review = ?,
			is_active = ?, is_golden_ticket = ?, maturity_state = ?, retired_at = ?,
			resurrect_count = ?, activation_status = ?, suspend_reason = ?, suspended_at = ?
		WHERE id = ?
	`,
		card.Front,
		card.Back,
		string(card.Type),
		nullString(card.ParentListID),
		card.ListPosition,
		nullString(card.TargetItem),
		contextJSON,
		nullString(card.ContentHash),
		nullInt64(card.SourceID),
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.Reps,
		card.Lapses,
		card.State,
		nullTimeValue(card.Due),
		nullTimePtr(card.LastReview),
		card.IsActive,
		card.IsGoldenTicket,
		string(card.Maturity),
		nullTimePtr(card.RetiredAt),
		card.ResurrectCount,
		string(card.ActivationStatus),
		nullString(card.SuspendReason),
		nullTimePtr(card.SuspendedAt),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update card %s: no such card", card.ID)
	}
	return nil
}

// ApplyReview commits a review submission: the card mutation and the
// review-log append happen in one transaction, both or neither.
func (db *DB) ApplyReview(card domain.Card, log domain.ReviewLog) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	if err := db.execUpdateCard(tx, card); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO review_logs (id, card_id, rating, stability, difficulty, state,
			scheduled_days, due_date, reviewed_at, response_ms, partial_credit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		log.ID,
		log.CardID,
		log.Rating,
		log.Stability,
		log.Difficulty,
		log.State,
		log.ScheduledDays,
		log.Due,
		log.ReviewedAt,
		nullIntPtr(log.ResponseMs),
		nullFloatPtr(log.PartialCredit),
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log for card %s: %w", log.CardID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for card %s: %w", log.CardID, err)
	}
	return nil
}

// FindCardByID retrieves a card by id. Returns (nil, nil) when absent.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by id %s: %w", id, err)
	}
	return card, nil
}

// FindCardByHash retrieves a card by content hash. Returns (nil, nil) when absent.
func (db *DB) FindCardByHash(hash string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE content_hash = ?`, hash)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}
	return card, nil
}

// GetDueCards returns active cards due at or before now, oldest first.
func (db *DB) GetDueCards(now time.Time) ([]domain.Card, error) {
	return db.queryCards(`
		SELECT `+cardColumns+` FROM cards
		WHERE is_active = 1 AND due_date IS NOT NULL AND due_date <= ?
		ORDER BY due_date ASC
	`, now)
}

// GetCardsByParentList returns all sibling cards of a generated list,
// ordered by their origin position.
func (db *DB) GetCardsByParentList(parentListID string) ([]domain.Card, error) {
	return db.queryCards(`
		SELECT `+cardColumns+` FROM cards
		WHERE parent_list_id = ?
		ORDER BY list_position ASC
	`, parentListID)
}

// GetCardsBySourceID returns all cards associated with a source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]domain.Card, error) {
	return db.queryCards(`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
}

func (db *DB) queryCards(query string, args ...any) ([]domain.Card, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// DeleteCardByHash removes a card by content hash. Used only by sync
// reconciliation; retirement is not deletion.
func (db *DB) DeleteCardByHash(hash string) error {
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE content_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// GetReviewLogs returns the review history of a card, oldest first.
func (db *DB) GetReviewLogs(cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT id, card_id, rating, stability, difficulty, state, scheduled_days,
			due_date, reviewed_at, response_ms, partial_credit
		FROM review_logs WHERE card_id = ? ORDER BY reviewed_at ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review logs for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var l domain.ReviewLog
		var responseMs sql.NullInt64
		var partialCredit sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.CardID, &l.Rating, &l.Stability, &l.Difficulty,
			&l.State, &l.ScheduledDays, &l.Due, &l.ReviewedAt, &responseMs, &partialCredit); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		if responseMs.Valid {
			v := int(responseMs.Int64)
			l.ResponseMs = &v
		}
		if partialCredit.Valid {
			v := partialCredit.Float64
			l.PartialCredit = &v
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var card domain.Card
	var (
		cardType         string
		parentListID     sql.NullString
		targetItem       sql.NullString
		contextItems     sql.NullString
		contentHash      sql.NullString
		sourceID         sql.NullInt64
		due              sql.NullTime
		lastReview       sql.NullTime
		maturity         string
		retiredAt        sql.NullTime
		activationStatus string
		suspendReason    sql.NullString
		suspendedAt      sql.NullTime
	)

	err := s.Scan(
		&card.ID,
		&card.Front,
		&card.Back,
		&cardType,
		&parentListID,
		&card.ListPosition,
		&targetItem,
		&contextItems,
		&contentHash,
		&sourceID,
		&card.Stability,
		&card.Difficulty,
		&card.ElapsedDays,
		&card.ScheduledDays,
		&card.Reps,
		&card.Lapses,
		&card.State,
		&due,
		&lastReview,
		&card.IsActive,
		&card.IsGoldenTicket,
		&maturity,
		&retiredAt,
		&card.ResurrectCount,
		&activationStatus,
		&suspendReason,
		&suspendedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Type = domain.CardType(cardType)
	card.ParentListID = parentListID.String
	card.TargetItem = targetItem.String
	card.ContentHash = contentHash.String
	card.SourceID = sourceID.Int64
	card.Maturity = domain.MaturityState(maturity)
	card.ActivationStatus = domain.ActivationStatus(activationStatus)
	card.SuspendReason = suspendReason.String
	if due.Valid {
		card.Due = due.Time
	}
	if lastReview.Valid {
		t := lastReview.Time
		card.LastReview = &t
	}
	if retiredAt.Valid {
		t := retiredAt.Time
		card.RetiredAt = &t
	}
	if suspendedAt.Valid {
		t := suspendedAt.Time
		card.SuspendedAt = &t
	}
	if contextItems.Valid && contextItems.String != "" {
		if err := json.Unmarshal([]byte(contextItems.String), &card.ContextItems); err != nil {
			return nil, fmt.Errorf("failed to decode context items for card %s: %w", card.ID, err)
		}
	}

	return &card, nil
}

// Source represents a card source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by path. Returns (nil, nil) when absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`SELECT id, path, type, last_scanned FROM sources WHERE path = ?`, path)
	if err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, type, last_scanned FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`UPDATE sources SET last_scanned = ? WHERE id = ?`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source and all of its cards.
func (db *DB) DeleteSource(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin source delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards for source ID %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	return tx.Commit()
}

func marshalContext(items []string) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullTimeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullIntPtr(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullFloatPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
