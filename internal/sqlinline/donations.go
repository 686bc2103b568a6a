package sqlinline

const QInsertDonation = `--sql cf10a7b5-1373-429c-9ea4-7fd9804ff185
insert into donations(id, campaign_id, donor_id, amount, anonymous, country, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::bigint, $5::boolean, $6::text, $7::timestamptz);
`

const QListDonations = `--sql 1067d745-4462-47a4-9a0e-f5e2e3c39195
select id, campaign_id, donor_id, amount, anonymous, country, created_at
from donations
where campaign_id = $1::uuid
order by created_at, id;
`

const QEligibleDonors = `--sql a34114cd-d970-4681-acc9-0f936d376cd3
select distinct donor_id
from donations
where campaign_id = $1::uuid and created_at < $2::timestamptz;
`
