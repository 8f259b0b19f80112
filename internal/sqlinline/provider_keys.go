package sqlinline

// QSelectProviderKeys loads the comma separated key list stored for a
// provider.
const QSelectProviderKeys = `--sql ee93fd3a-6264-489d-b9a5-07c1769ed42a
select token
from integration_tokens
where provider = $1::text;
`

// QUpsertProviderKeys replaces the key list of a provider. $3 carries
// bookkeeping properties such as the key count.
const QUpsertProviderKeys = `--sql a292acc1-20bd-4d0e-82b7-01001f88d568
insert into integration_tokens (id, provider, token, properties)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
