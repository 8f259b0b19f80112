package sqlinline

const QInsertFeedback = `--sql 5c2d7e1a-94b3-4f06-a8e2-7d15c0b93f4e
insert into feedback(id, request_id, function, user_input, ai_response, model_used, rating, comments, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::smallint, $7::text, $8::timestamptz);
`

const QFeedbackSummary = `--sql a7d3e2b9-1c64-4f58-b0e7-6e28d9c41f35
select function, count(*) as total, coalesce(avg(rating), 0)::float8 as average_rating
from feedback
group by function
order by function;
`
