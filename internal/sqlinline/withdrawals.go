package sqlinline

const QInsertWithdrawal = `--sql a2839ed1-08c8-4092-9dcf-97b04cb91474
insert into withdrawal_requests(id, campaign_id, amount, purpose, status, created_at, vote_deadline)
values ($1::uuid, $2::uuid, $3::bigint, $4::text, $5::text, $6::timestamptz, $7::timestamptz);
`

const QInsertWithdrawalVoter = `--sql 0f025faf-c519-48fc-81f5-66622679e8f8
insert into withdrawal_voters(request_id, donor_id)
values ($1::uuid, $2::text)
on conflict do nothing;
`

const QGetWithdrawal = `--sql 342602df-478e-4260-a520-83098e726792
select id, campaign_id, amount, purpose, status, created_at, vote_deadline
from withdrawal_requests
where id = $1::uuid;
`

const QListWithdrawalVoters = `--sql a2fe88ee-3e65-404f-b25a-4b484a9c030a
select donor_id
from withdrawal_voters
where request_id = $1::uuid;
`

const QListWithdrawalsByCampaign = `--sql 84bfdb60-c8db-43c7-85ee-f761ab9bdbfd
select id, campaign_id, amount, purpose, status, created_at, vote_deadline
from withdrawal_requests
where campaign_id = $1::uuid
order by created_at, id;
`

const QListWithdrawals = `--sql 3f88a7be-eb94-4fc9-872a-58494975327f
select id, campaign_id, amount, purpose, status, created_at, vote_deadline
from withdrawal_requests
order by created_at, id;
`

// QTransitionWithdrawal is the status compare-and-swap; zero rows
// affected means another writer won.
const QTransitionWithdrawal = `--sql 221c9d6a-0dfc-4d78-8a88-dbbc137a5546
update withdrawal_requests
set status = $3::text
where id = $1::uuid and status = $2::text;
`

// QLockWithdrawal takes the request row lock for the rest of the
// transaction. Vote writes and settlement both acquire it, which
// serializes them: a ballot committed before the lock is tallied, one
// arriving after waits and then fails the voting-state check.
const QLockWithdrawal = `--sql 4ae3d5a6-cde3-4686-bcd8-157f783e52cd
select status
from withdrawal_requests
where id = $1::uuid
for update;
`

const QCountWithdrawalVoters = `--sql 800f191f-c574-4d72-aeec-349cc4528346
select count(*)
from withdrawal_voters
where request_id = $1::uuid;
`

// QSetWithdrawalStatus writes the status unconditionally; callers hold
// the row lock and have already checked the current state.
const QSetWithdrawalStatus = `--sql 5722c6c0-91cb-4c6b-a65d-e4b0ca5897e8
update withdrawal_requests
set status = $2::text
where id = $1::uuid;
`

const QCancelWithdrawal = `--sql 18ccded3-60c7-4b6d-b7ac-7f9ba9cf87eb
update withdrawal_requests r
set status = 'cancelled'
where r.id = $1::uuid
  and r.status = 'voting'
  and not exists (select 1 from votes v where v.request_id = r.id);
`
