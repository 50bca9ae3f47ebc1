package infrastructure

// schemaDDL is the development schema. Statements are idempotent so repeated
// startups are safe.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL,
    department_id TEXT NOT NULL DEFAULT '',
    active        BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS requisitions (
    id               TEXT PRIMARY KEY,
    number           TEXT NOT NULL UNIQUE,
    requester_id     TEXT NOT NULL,
    department_id    TEXT NOT NULL,
    title            TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    required_date    TIMESTAMPTZ NOT NULL,
    priority         TEXT NOT NULL,
    status           TEXT NOT NULL,
    items            JSONB NOT NULL,
    total_amount     BIGINT NOT NULL,
    approval_history JSONB NOT NULL,
    current_level    INTEGER NOT NULL,
    awaiting_role    TEXT NOT NULL DEFAULT '',
    rejection_reason TEXT NOT NULL DEFAULT '',
    spent_applied    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requisitions_department ON requisitions (department_id, status);
CREATE INDEX IF NOT EXISTS idx_requisitions_awaiting ON requisitions (awaiting_role) WHERE status IN ('pending', 'in_approval');

CREATE TABLE IF NOT EXISTS approval_configs (
    id         TEXT PRIMARY KEY,
    module     TEXT NOT NULL,
    name       TEXT NOT NULL,
    min_amount BIGINT NOT NULL,
    max_amount BIGINT,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    levels     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_approval_configs_module ON approval_configs (module) WHERE active;

CREATE TABLE IF NOT EXISTS sequence_counters (
    name  TEXT NOT NULL,
    year  INTEGER NOT NULL,
    value BIGINT NOT NULL,
    PRIMARY KEY (name, year)
);

CREATE TABLE IF NOT EXISTS department_budgets (
    department_id TEXT NOT NULL,
    fiscal_year   INTEGER NOT NULL,
    annual        BIGINT NOT NULL DEFAULT 0,
    spent         BIGINT NOT NULL DEFAULT 0,
    committed     BIGINT NOT NULL DEFAULT 0,
    alerts        JSONB NOT NULL DEFAULT '[]',
    updated_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (department_id, fiscal_year)
);

CREATE TABLE IF NOT EXISTS purchase_orders (
    id              TEXT PRIMARY KEY,
    number          TEXT NOT NULL UNIQUE,
    department_id   TEXT NOT NULL,
    supplier        TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL,
    total_amount    BIGINT NOT NULL,
    lines           JSONB NOT NULL,
    requisition_ids JSONB NOT NULL,
    created_by      TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_purchase_orders_department ON purchase_orders (department_id);

CREATE TABLE IF NOT EXISTS notifications (
    id            TEXT PRIMARY KEY,
    recipient_id  TEXT NOT NULL,
    type          TEXT NOT NULL,
    title         TEXT NOT NULL,
    message       TEXT NOT NULL,
    resource_type TEXT NOT NULL DEFAULT '',
    resource_id   TEXT NOT NULL DEFAULT '',
    read          BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL,
    read_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, read);
`
