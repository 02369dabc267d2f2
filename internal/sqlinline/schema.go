package sqlinline

const QEnsureSchema = `--sql 7a4c1e98-6b3d-4f52-8d07-e2b9c5a1f640
create table if not exists credential_pool (
    id uuid primary key,
    provider text not null,
    token text not null,
    position int not null default 0,
    properties jsonb not null default '{}'::jsonb,
    disabled_at timestamptz,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now(),
    unique (provider, token)
);

create table if not exists acquisition_runs (
    id uuid primary key,
    mode text not null,
    started_at timestamptz not null,
    finished_at timestamptz not null
);

create table if not exists acquisition_results (
    run_id uuid not null references acquisition_runs(id) on delete cascade,
    scene_index int not null,
    local_path text not null,
    provenance text not null,
    source_domain text not null default '',
    source_url text not null default '',
    width int not null default 0,
    height int not null default 0,
    bytes bigint not null default 0,
    primary key (run_id, scene_index)
);
`
