package artifact

const qInsertGeneration = `
insert into generations (id, kind, style, room_type, prompt, original_url, outcome)
values ($1::uuid, $2, $3, $4, $5, $6, $7::jsonb)
`

const qSelectGeneration = `
select id, kind, style, room_type, prompt, original_url, outcome, created_at
from generations
where id = $1::uuid
`

const qListGenerations = `
select id, kind, style, room_type, prompt, original_url, outcome, created_at
from generations
order by created_at desc
limit $1
`
