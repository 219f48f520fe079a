package storage

const schema = `
-- The 'progress' table stores one scheduling snapshot per user and card.
CREATE TABLE IF NOT EXISTS progress (
    username TEXT NOT NULL,
    card_id TEXT NOT NULL,
    interval INTEGER NOT NULL,
    ease_factor REAL NOT NULL,
    next_review DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    PRIMARY KEY (username, card_id)
);
`
