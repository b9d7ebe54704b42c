package store

import "fmt"

// schemaSQL renders the idempotent bootstrap schema for the coordination
// substrate: events, tasks, agents, memory, articles, and human
// oversight tables per spec.md §3. Columns that hold structured,
// schemaless payloads (event payload, task input/output, memory
// metadata, article metadata) are JSONB, per spec.md §4.1's
// "dynamic JSON payloads" design note.
//
// embeddingDim is baked into the memory_items column at bootstrap time:
// spec.md §4.4 fixes the vector dimension from the embedding model in
// use at initialization, and pgvector enforces that fixed width at the
// column level once declared (vector(N) rejects mismatched inserts).
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(schemaSQLTemplate, embeddingDim)
}

const schemaSQLTemplate = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS events (
	event_seq   BIGSERIAL PRIMARY KEY,
	story_id    TEXT NOT NULL,
	agent_id    TEXT,
	event_type  TEXT NOT NULL,
	payload     JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_events_story_created ON events (story_id, created_at);
CREATE INDEX IF NOT EXISTS idx_events_type_created ON events (event_type, created_at);

CREATE TABLE IF NOT EXISTS tasks (
	task_id         TEXT PRIMARY KEY,
	story_id        TEXT NOT NULL,
	stage           TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'pending',
	priority        INT NOT NULL DEFAULT 0,
	assigned_agent  TEXT,
	input           JSONB NOT NULL DEFAULT '{}'::jsonb,
	output          JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at      TIMESTAMPTZ,
	completed_at    TIMESTAMPTZ,
	deadline        TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tasks_claim ON tasks (status, stage, priority DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS idx_tasks_story_stage ON tasks (story_id, stage);

CREATE TABLE IF NOT EXISTS agents (
	agent_id        TEXT PRIMARY KEY,
	role            TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'idle',
	last_heartbeat  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_agents_role ON agents (role);

CREATE TABLE IF NOT EXISTS memory_items (
	id            TEXT PRIMARY KEY,
	story_id      TEXT NOT NULL,
	content       TEXT NOT NULL,
	embedding     VECTOR(%d) NOT NULL,
	memory_type   TEXT NOT NULL,
	metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_memory_embedding ON memory_items USING ivfflat (embedding vector_cosine_ops);

CREATE TABLE IF NOT EXISTS articles (
	article_id  TEXT PRIMARY KEY,
	story_id    TEXT NOT NULL,
	headline    TEXT NOT NULL,
	body        TEXT NOT NULL,
	byline      TEXT,
	summary     TEXT,
	sources     JSONB NOT NULL DEFAULT '[]'::jsonb,
	entities    JSONB NOT NULL DEFAULT '[]'::jsonb,
	tags        JSONB NOT NULL DEFAULT '[]'::jsonb,
	metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_articles_story ON articles (story_id);

CREATE TABLE IF NOT EXISTS human_prompts (
	id          TEXT PRIMARY KEY,
	story_id    TEXT NOT NULL,
	text        TEXT NOT NULL,
	context     JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_by  TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	response    TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_human_prompts_status ON human_prompts (status);
CREATE INDEX IF NOT EXISTS idx_human_prompts_story ON human_prompts (story_id);

CREATE TABLE IF NOT EXISTS human_sources (
	id           TEXT PRIMARY KEY,
	story_id     TEXT NOT NULL,
	source_type  TEXT NOT NULL,
	url          TEXT,
	content      TEXT,
	metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
	processed    BOOLEAN NOT NULL DEFAULT false,
	added_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_human_sources_story ON human_sources (story_id);
`
