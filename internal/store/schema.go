package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extractions (
    id TEXT PRIMARY KEY,
    doc_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    kind TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    entry_count INTEGER NOT NULL DEFAULT 0,
    summary TEXT NOT NULL DEFAULT '',
    result_json JSON NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extractions_doc ON extractions(doc_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_extractions_hash_kind ON extractions(content_hash, kind);
CREATE INDEX IF NOT EXISTS idx_extractions_created ON extractions(created_at);
`
