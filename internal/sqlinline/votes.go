package sqlinline

// QUpsertVote writes the donor's current choice. It runs after
// QLockWithdrawal in the same transaction has confirmed the request is
// still voting, so the choice overwrite never races settlement.
const QUpsertVote = `--sql 70799c5e-84db-4322-b89c-1c5f2f2e0e79
insert into votes(request_id, donor_id, choice, cast_at)
values ($1::uuid, $2::text, $3::text, $4::timestamptz)
on conflict (request_id, donor_id) do update
set choice = excluded.choice, cast_at = excluded.cast_at;
`

const QListVotes = `--sql db93e4d5-78c3-4ea6-b9e5-8f26cf748e79
select request_id, donor_id, choice, cast_at
from votes
where request_id = $1::uuid
order by donor_id;
`
