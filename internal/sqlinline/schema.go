package sqlinline

// QEnsureSchema creates the tables the service writes to. Safe to run on
// every start.
const QEnsureSchema = `--sql 9e41c6d2-0b7a-4a53-8f1e-c2d84b7a6e10
create table if not exists integration_tokens (
    id uuid primary key,
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create table if not exists usage_events (
    id uuid primary key,
    request_id uuid not null,
    function text not null,
    model text not null default '',
    outcome text not null,
    latency_ms int not null default 0,
    created_at timestamptz not null default now(),
    properties jsonb not null default '{}'::jsonb
);
create index if not exists usage_events_created_at_idx on usage_events (created_at);
create table if not exists feedback (
    id uuid primary key,
    request_id uuid not null,
    function text not null,
    user_input text not null,
    ai_response text not null,
    model_used text not null,
    rating smallint not null check (rating between 1 and 5),
    comments text not null default '',
    created_at timestamptz not null default now()
);
`
