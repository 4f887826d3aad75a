package postgres

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_learners", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_user_progress", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS learners (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    unlocked_levels TEXT[] NOT NULL DEFAULT ARRAY['Beginner'],
    placement_level VARCHAR(16) NOT NULL DEFAULT '',
    placed_at TIMESTAMP WITH TIME ZONE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_learners_created_at ON learners(created_at);
`

const migration001Down = `
DROP TABLE IF EXISTS learners;
`

// user_progress stores the snapshot as one JSONB document. points and streak
// are copied out for ordering in reports; the document stays authoritative.
const migration002Up = `
CREATE TABLE IF NOT EXISTS user_progress (
    user_id VARCHAR(64) PRIMARY KEY,
    snapshot JSONB NOT NULL,
    version BIGINT NOT NULL DEFAULT 1,
    points INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_version CHECK (version > 0),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_user_progress_points ON user_progress(points DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS user_progress;
`
