package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Versions are
// sequential starting from 1, and each migration records its own version.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS templates (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	team_id      TEXT,
	folder_id    TEXT,
	name         TEXT NOT NULL,
	from_name    TEXT NOT NULL DEFAULT '',
	from_email   TEXT NOT NULL DEFAULT '',
	recipients   TEXT NOT NULL DEFAULT '',
	cc           TEXT NOT NULL DEFAULT '',
	bcc          TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	placeholders TEXT NOT NULL DEFAULT '[]',
	priority     TEXT NOT NULL DEFAULT 'normal',
	visibility   TEXT NOT NULL DEFAULT 'personal',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_templates_user ON templates(user_id);
CREATE INDEX IF NOT EXISTS idx_templates_team ON templates(team_id, visibility);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
