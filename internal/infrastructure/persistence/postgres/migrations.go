package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learners and profiles
-- Version: 001

CREATE TABLE IF NOT EXISTS learners (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(254) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    tier VARCHAR(10) NOT NULL DEFAULT 'FREE',
    hint_credits INTEGER NOT NULL DEFAULT 5,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_tier CHECK (tier IN ('FREE', 'PREMIUM')),
    CONSTRAINT non_negative_credits CHECK (hint_credits >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_email ON learners(email);
CREATE INDEX IF NOT EXISTS idx_learners_tier ON learners(tier);

-- Derived learning profiles, written by the report generator
CREATE TABLE IF NOT EXISTS learner_profiles (
    learner_id UUID PRIMARY KEY REFERENCES learners(id) ON DELETE CASCADE,
    engagement_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    competence_map JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS learner_profiles;
DROP TABLE IF EXISTS learners;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CONTENT AND INTERACTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create content catalog and interaction log
-- Version: 002

CREATE TABLE IF NOT EXISTS content_nodes (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title VARCHAR(200) NOT NULL,
    node_type VARCHAR(10) NOT NULL,
    payload JSONB NOT NULL DEFAULT '{}'::jsonb,
    transcript TEXT NOT NULL DEFAULT '',
    file_ref TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_node_type CHECK (node_type IN ('VIDEO', 'ARTICLE', 'QUIZ'))
);

CREATE INDEX IF NOT EXISTS idx_content_nodes_type ON content_nodes(node_type);

-- Interaction log. The primary key on id is what makes at-least-once
-- queue delivery safe: redelivered events collide here and are dropped.
CREATE TABLE IF NOT EXISTS interactions (
    id UUID PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    content_node_id UUID NOT NULL REFERENCES content_nodes(id) ON DELETE CASCADE,
    interaction_type VARCHAR(10) NOT NULL,
    metadata JSONB,
    accepted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    persisted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_interaction_type CHECK (
        interaction_type IN ('VIEW', 'COMPLETE', 'PAUSE', 'SEEK', 'ANSWER', 'SKIP')
    )
);

CREATE INDEX IF NOT EXISTS idx_interactions_learner ON interactions(learner_id, accepted_at DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_content ON interactions(content_node_id);
CREATE INDEX IF NOT EXISTS idx_interactions_accepted_at ON interactions(accepted_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS interactions;
DROP TABLE IF EXISTS content_nodes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE QUIZ ATTEMPTS, REPORTS, PAYMENT EVENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create quiz attempts, reports, payment event dedupe
-- Version: 003

CREATE TABLE IF NOT EXISTS quiz_attempts (
    id UUID PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    content_node_id UUID NOT NULL REFERENCES content_nodes(id) ON DELETE CASCADE,
    questions JSONB NOT NULL,
    answers JSONB,
    state VARCHAR(10) NOT NULL DEFAULT 'created',
    score DOUBLE PRECISION,
    outcome VARCHAR(10) NOT NULL DEFAULT '',
    feedback JSONB,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    submitted_at TIMESTAMP WITH TIME ZONE,
    scored_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_state CHECK (state IN ('created', 'submitted', 'scored')),
    CONSTRAINT valid_outcome CHECK (outcome IN ('', 'PASSED', 'FAILED')),
    CONSTRAINT valid_score CHECK (score IS NULL OR (score >= 0 AND score <= 1))
);

CREATE INDEX IF NOT EXISTS idx_quiz_attempts_learner ON quiz_attempts(learner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_quiz_attempts_content ON quiz_attempts(content_node_id);

-- Reports store the full, unredacted body; redaction is applied on read.
CREATE TABLE IF NOT EXISTS learner_reports (
    id UUID PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    data JSONB NOT NULL,
    generated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_learner_reports_learner ON learner_reports(learner_id, generated_at DESC);

-- Payment event dedupe. One row per provider event ID; the insert is
-- part of the crediting transaction, so a replayed webhook cannot
-- grant credits twice.
CREATE TABLE IF NOT EXISTS payment_events (
    id VARCHAR(128) PRIMARY KEY,
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_payment_events_learner ON payment_events(learner_id);
`

const migration003Down = `
DROP TABLE IF EXISTS payment_events;
DROP TABLE IF EXISTS learner_reports;
DROP TABLE IF EXISTS quiz_attempts;
`
