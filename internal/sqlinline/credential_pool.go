package sqlinline

const QSelectCredentialPool = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7
select token
from credential_pool
where provider = $1::text
  and disabled_at is null
order by position asc, created_at asc;
`

const QInsertCredential = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into credential_pool (id, provider, token, position, properties, created_at, updated_at)
values (
    gen_random_uuid(),
    (select provider from incoming),
    (select token from incoming),
    coalesce((select max(position) + 1 from credential_pool where provider = (select provider from incoming)), 0),
    (select properties from incoming),
    now(),
    now()
)
on conflict (provider, token) do update set
    disabled_at = null,
    properties = excluded.properties,
    updated_at = now();
`

const QDisableCredential = `--sql 2c1f7b9e-5a44-4d0b-9e61-0d3f2b7a8c15
update credential_pool
set disabled_at = now(), updated_at = now()
where provider = $1::text
  and token = $2::text;
`
