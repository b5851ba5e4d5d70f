package db

// SchemaSQL contains the registry schema initialization SQL.
// Chunk tables are created per repository at ingest time (see chunks.go).
const SchemaSQL = `
    -- ==========================================================================
    -- REPOSITORY TABLE (registry)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS repository SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON repository TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON repository TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS path ON repository TYPE string;
    DEFINE FIELD IF NOT EXISTS url ON repository TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON repository TYPE string
        ASSERT $value IN ["in_progress", "completed", "failed"];
    DEFINE FIELD IF NOT EXISTS tokens ON repository TYPE int DEFAULT 0 ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS snippets ON repository TYPE int DEFAULT 0 ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS created_at ON repository TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated_at ON repository TYPE datetime DEFAULT time::now();

    -- One record per owner/name path; dedup relies on this index.
    DEFINE INDEX IF NOT EXISTS repository_path ON repository FIELDS path UNIQUE;
    DEFINE INDEX IF NOT EXISTS repository_status ON repository FIELDS status;
`
