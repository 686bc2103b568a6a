package sqlinline

const QInsertNGO = `--sql 1838596c-ce0c-4935-949b-6b0af9eb0877
insert into ngos(id, name, description, location, verified, completed_withdrawals, total_raised, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, false, 0, 0, $5::timestamptz);
`

const QGetNGO = `--sql 41cc99e1-bcd7-43c8-85b6-be722134f283
select id, name, description, location, verified, completed_withdrawals, total_raised, created_at
from ngos
where id = $1::uuid;
`

const QListNGOs = `--sql 03f28f7e-3cd6-4175-91c1-c1c901f4f2e1
select id, name, description, location, verified, completed_withdrawals, total_raised, created_at
from ngos
order by created_at, id;
`

const QAddNGORaised = `--sql 19b2fd3f-56a9-4f5b-962c-1393f0f8ae1c
update ngos
set total_raised = total_raised + $2::bigint
where id = $1::uuid;
`

const QIncrementNGOCompleted = `--sql 4d0828b5-f577-4969-9655-467accd030f7
update ngos
set completed_withdrawals = completed_withdrawals + 1
where id = $1::uuid;
`

const QSetNGOVerified = `--sql 99440b6e-5e57-40d8-ba01-3eea96201a53
update ngos
set verified = $2::boolean
where id = $1::uuid
returning id, name, verified;
`
