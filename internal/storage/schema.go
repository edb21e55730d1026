package storage

const schema = `
-- The 'cards' table holds every practice-bank card: content, structured
-- cloze data, scheduler state, and the tiered lifecycle fields.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    card_type TEXT NOT NULL,
    parent_list_id TEXT,
    list_position INTEGER NOT NULL DEFAULT 0,
    target_item TEXT,
    context_items TEXT, -- JSON array of sibling items, canonical order
    content_hash TEXT,
    source_id INTEGER,

    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed_days REAL NOT NULL DEFAULT 0,
    scheduled_days REAL NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0 New, 1 Learning, 2 Review, 3 Relearning
    due_date DATETIME,
    last_review DATETIME,

    is_active INTEGER NOT NULL DEFAULT 0,
    is_golden_ticket INTEGER NOT NULL DEFAULT 0,
    maturity_state TEXT NOT NULL DEFAULT 'new',
    retired_at DATETIME,
    resurrect_count INTEGER NOT NULL DEFAULT 0,
    activation_status TEXT NOT NULL DEFAULT 'banked',
    suspend_reason TEXT,
    suspended_at DATETIME,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(is_active, due_date);
CREATE INDEX IF NOT EXISTS idx_cards_parent_list ON cards(parent_list_id);
CREATE INDEX IF NOT EXISTS idx_cards_content_hash ON cards(content_hash);

-- Review logs are append-only. They feed analytics and parameter
-- optimization; card state is never re-derived from them.
CREATE TABLE IF NOT EXISTS review_logs (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL,
    rating INTEGER NOT NULL,
    stability REAL NOT NULL,
    difficulty REAL NOT NULL,
    state INTEGER NOT NULL,
    scheduled_days REAL NOT NULL,
    due_date DATETIME NOT NULL,
    reviewed_at DATETIME NOT NULL,
    response_ms INTEGER,
    partial_credit REAL,

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id);

-- Sources track where content comes from: a local directory or a git
-- repository of markdown files.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);
`
