package sqlinline

const QInsertRun = `--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db
insert into acquisition_runs (id, mode, started_at, finished_at)
values ($1::uuid, $2::text, $3::timestamptz, $4::timestamptz)
on conflict (id) do update set
    finished_at = excluded.finished_at;
`

const QInsertRunResult = `--sql 0b7e3c52-9d1a-4c6f-8e27-51a4f3d9b6c0
insert into acquisition_results (run_id, scene_index, local_path, provenance, source_domain, source_url, width, height, bytes)
values ($1::uuid, $2::int, $3::text, $4::text, $5::text, $6::text, $7::int, $8::int, $9::bigint)
on conflict (run_id, scene_index) do update set
    local_path = excluded.local_path,
    provenance = excluded.provenance,
    source_domain = excluded.source_domain,
    source_url = excluded.source_url,
    width = excluded.width,
    height = excluded.height,
    bytes = excluded.bytes;
`

const QSelectRunResults = `--sql 9e2d4a61-3b7f-4c08-a5d1-7f6c2e90b4a3
select scene_index, local_path, provenance, source_domain, source_url, width, height, bytes
from acquisition_results
where run_id = $1::uuid
order by scene_index asc;
`

const QSelectProvenanceStats = `--sql 5d3a9c7e-1f24-4b86-9a0e-c4e8b1f2d736
select provenance, count(*)
from acquisition_results
group by provenance
order by provenance asc;
`
