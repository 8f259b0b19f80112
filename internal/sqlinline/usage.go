package sqlinline

const QInsertUsageEvent = `--sql e40f651c-a8b3-44c7-a911-bb8a0ed5f6ef
insert into usage_events(id, request_id, function, model, outcome, latency_ms, created_at, properties)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::int, $6::timestamptz, coalesce($7::jsonb, '{}'::jsonb));
`

const QUsageSummary = `--sql 3b0f8a61-52d4-4c0e-9d7e-1f6c2a94b8d5
select function,
       count(*) as total,
       count(*) filter (where outcome = 'success') as succeeded,
       coalesce(avg(latency_ms) filter (where outcome = 'success'), 0)::int as avg_latency_ms
from usage_events
where created_at >= $1::timestamptz
group by function
order by function;
`
