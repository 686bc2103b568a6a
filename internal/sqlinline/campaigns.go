package sqlinline

const QInsertCampaign = `--sql 6f0c6e92-b823-4e11-b5f6-28fc7c7eeb21
insert into campaigns(id, ngo_id, title, description, purpose, location, target_amount, raised_amount, executed_amount, start_date, end_date, status, version, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, $7::bigint, 0, 0, $8::timestamptz, $9::timestamptz, $10::text, 0, $11::timestamptz);
`

const QGetCampaign = `--sql ca0e75c0-0943-48a8-a07c-3baf60a371ae
select id, ngo_id, title, description, purpose, location, target_amount, raised_amount, executed_amount, start_date, end_date, status, version, created_at
from campaigns
where id = $1::uuid;
`

const QListCampaigns = `--sql 887d7498-4dd3-4d93-8779-fca445954fd0
select id, ngo_id, title, description, purpose, location, target_amount, raised_amount, executed_amount, start_date, end_date, status, version, created_at
from campaigns
order by created_at, id;
`

const QTransitionCampaign = `--sql 73a17463-3a57-4d5e-bf2d-6155ebc443a5
update campaigns
set status = $3::text, version = version + 1
where id = $1::uuid and status = $2::text;
`

// QApplyCampaignDonation commits a donation's effect on the campaign
// row; the version predicate makes concurrent writers fail cleanly.
const QApplyCampaignDonation = `--sql e783059b-40b0-4dfd-a250-b71d925550cd
update campaigns
set raised_amount = $2::bigint, status = $3::text, version = version + 1
where id = $1::uuid and version = $4::bigint;
`

const QBumpCampaignVersion = `--sql b023d4a5-dc4b-4e4a-b7d6-929ef2252094
update campaigns
set version = version + 1
where id = $1::uuid and version = $2::bigint;
`

const QApplyCampaignExecution = `--sql 4a3174c6-d70e-4d5b-93c7-5457cbe14441
update campaigns
set executed_amount = $2::bigint, version = version + 1
where id = $1::uuid and version = $3::bigint;
`
