package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/service"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type api struct {
	t       *testing.T
	handler http.Handler
	clock   *testClock
}

func newAPI(t *testing.T) *api {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	logger := zerolog.Nop()
	svc := service.New(ledger.NewMemoryStore(), logger).WithClock(clock.Now)
	app := handlers.NewApp(svc, logger)
	cfg := &infra.Config{
		DefaultLocale:   "en",
		AllowedOrigins:  "*",
		RateLimitPerMin: 10000,
	}
	return &api{t: t, handler: httpapi.NewRouter(app, logger, cfg, nil), clock: clock}
}

func (a *api) do(method, path, donor string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if donor != "" {
		req.Header.Set("X-Donor-ID", donor)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func (a *api) createNGO(name string) string {
	a.t.Helper()
	rr := a.do("POST", "/v1/ngos", "", map[string]any{
		"name": name, "description": "desc", "location": "Pune",
	})
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("create ngo: got %d: %s", rr.Code, rr.Body.String())
	}
	return decode(a.t, rr)["id"].(string)
}

func (a *api) createCampaign(ngoID string, target int64) string {
	a.t.Helper()
	start := a.clock.Now()
	rr := a.do("POST", "/v1/campaigns", "", map[string]any{
		"ngo_id":        ngoID,
		"title":         "clean water",
		"description":   "wells",
		"purpose":       "infrastructure",
		"location":      "Pune",
		"target_amount": target,
		"start_date":    start.UnixNano(),
		"end_date":      start.Add(90 * 24 * time.Hour).UnixNano(),
	})
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("create campaign: got %d: %s", rr.Code, rr.Body.String())
	}
	return decode(a.t, rr)["id"].(string)
}

// donate steps the clock afterwards so the donation lands strictly
// before any withdrawal request created next; eligibility is keyed on
// that ordering.
func (a *api) donate(campaignID, donor string, amount int64) {
	a.t.Helper()
	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/donations", donor, map[string]any{"amount": amount})
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("donate: got %d: %s", rr.Code, rr.Body.String())
	}
	a.clock.Advance(time.Minute)
}

func (a *api) createWithdrawal(campaignID string, amount int64) string {
	a.t.Helper()
	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/withdrawals", "", map[string]any{
		"amount": amount, "purpose": "pipes",
	})
	if rr.Code != http.StatusCreated {
		a.t.Fatalf("create withdrawal: got %d: %s", rr.Code, rr.Body.String())
	}
	return decode(a.t, rr)["id"].(string)
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	rr := a.do("GET", "/v1/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestNGOLifecycle(t *testing.T) {
	a := newAPI(t)
	id := a.createNGO("helping hands")

	rr := a.do("GET", "/v1/ngos/"+id, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get ngo: got %d", rr.Code)
	}
	body := decode(t, rr)
	if body["name"] != "helping hands" {
		t.Fatalf("name mismatch: %#v", body["name"])
	}
	if body["verified"] != false {
		t.Fatalf("new NGO must start unverified: %#v", body["verified"])
	}

	rr = a.do("GET", "/v1/ngos/unknown-id", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing ngo: got %d", rr.Code)
	}
	errBody := decode(t, rr)["error"].(map[string]any)
	if errBody["code"] != "not_found" {
		t.Fatalf("error code mismatch: %#v", errBody)
	}
}

func TestNGOCreateValidation(t *testing.T) {
	a := newAPI(t)
	rr := a.do("POST", "/v1/ngos", "", map[string]any{"name": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestDonationRequiresDonorIdentity(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)

	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/donations", "", map[string]any{"amount": 100})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDonationUpdatesCampaign(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)

	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/donations", "donor-a", map[string]any{"amount": 600})
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["raised_amount"].(float64) != 600 {
		t.Fatalf("raised_amount mismatch: %#v", body["raised_amount"])
	}
	if body["status"] != "active" {
		t.Fatalf("status mismatch: %#v", body["status"])
	}

	// Reaching the target flips the campaign to completed.
	rr = a.do("POST", "/v1/campaigns/"+campaignID+"/donations", "donor-b", map[string]any{"amount": 400})
	body = decode(t, rr)
	if body["status"] != "completed" {
		t.Fatalf("status mismatch at target: %#v", body["status"])
	}
}

func TestAnonymousDonorMaskedInListing(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)

	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/donations", "donor-a", map[string]any{
		"amount": 100, "anonymous": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d", rr.Code)
	}

	rr = a.do("GET", "/v1/campaigns/"+campaignID+"/donations", "", nil)
	items := decode(t, rr)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 donation, got %d", len(items))
	}
	item := items[0].(map[string]any)
	if v, ok := item["donor_id"]; ok && v != nil {
		t.Fatalf("expected donor_id to be null, got %#v", v)
	}
	if item["anonymous"] != true {
		t.Fatalf("anonymous flag lost: %#v", item)
	}
}

func TestWithdrawalVotingFlow(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)
	a.donate(campaignID, "donor-a", 600)
	a.donate(campaignID, "donor-b", 400)

	reqID := a.createWithdrawal(campaignID, 500)

	rr := a.do("GET", "/v1/withdrawals/"+reqID, "", nil)
	body := decode(t, rr)
	if body["status"] != "voting" {
		t.Fatalf("status mismatch: %#v", body["status"])
	}
	if body["eligible_voters"].(float64) != 2 {
		t.Fatalf("eligible_voters mismatch: %#v", body["eligible_voters"])
	}

	// Non-donor may not vote.
	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "stranger", map[string]any{"choice": "approve"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("stranger vote: got %d", rr.Code)
	}

	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "donor-a", map[string]any{"choice": "approve"})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("vote: got %d: %s", rr.Code, rr.Body.String())
	}

	// Before the deadline resolve is a no-op.
	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/resolve", "", nil)
	if decode(t, rr)["status"] != "voting" {
		t.Fatal("resolve before deadline must keep the request open")
	}

	a.clock.Advance(73 * time.Hour)

	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/resolve", "", nil)
	if got := decode(t, rr)["status"]; got != "approved" {
		t.Fatalf("resolve: got %#v", got)
	}

	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/execute", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("execute: got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["status"]; got != "executed" {
		t.Fatalf("execute status: got %#v", got)
	}

	// A second execute must not release funds twice.
	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/execute", "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("repeat execute: got %d", rr.Code)
	}

	rr = a.do("GET", "/v1/campaigns/"+campaignID, "", nil)
	if got := decode(t, rr)["executed_amount"].(float64); got != 500 {
		t.Fatalf("executed_amount mismatch: %v", got)
	}
}

func TestWithdrawalRejectedWhenMajorityAgainst(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)
	a.donate(campaignID, "donor-a", 600)
	a.donate(campaignID, "donor-b", 400)

	reqID := a.createWithdrawal(campaignID, 500)
	a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "donor-a", map[string]any{"choice": "approve"})
	a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "donor-b", map[string]any{"choice": "reject"})

	a.clock.Advance(73 * time.Hour)

	rr := a.do("POST", "/v1/withdrawals/"+reqID+"/resolve", "", nil)
	if got := decode(t, rr)["status"]; got != "rejected" {
		t.Fatalf("tie must reject: got %#v", got)
	}

	rr = a.do("POST", "/v1/withdrawals/"+reqID+"/execute", "", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("execute rejected request: got %d", rr.Code)
	}
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)
	a.donate(campaignID, "donor-a", 300)

	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/withdrawals", "", map[string]any{
		"amount": 500, "purpose": "pipes",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	errBody := decode(t, rr)["error"].(map[string]any)
	if errBody["code"] != "insufficient_balance" {
		t.Fatalf("error code mismatch: %#v", errBody)
	}
}

func TestCampaignCancel(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)

	rr := a.do("POST", "/v1/campaigns/"+campaignID+"/cancel", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: got %d: %s", rr.Code, rr.Body.String())
	}

	rr = a.do("POST", "/v1/campaigns/"+campaignID+"/donations", "donor-a", map[string]any{"amount": 100})
	if rr.Code != http.StatusConflict {
		t.Fatalf("donate to cancelled: got %d", rr.Code)
	}
}

func TestTopNGOsEndpoint(t *testing.T) {
	a := newAPI(t)

	// Two NGOs with decided requests, one idle.
	var reqIDs []string
	for i, approvals := range [][2]string{{"approve", "approve"}, {"approve", "reject"}} {
		ngoID := a.createNGO(fmt.Sprintf("ngo-%d", i))
		campaignID := a.createCampaign(ngoID, 10000)
		a.donate(campaignID, "donor-a", 600)
		a.donate(campaignID, "donor-b", 400)
		reqID := a.createWithdrawal(campaignID, 100)
		a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "donor-a", map[string]any{"choice": approvals[0]})
		a.do("POST", "/v1/withdrawals/"+reqID+"/votes", "donor-b", map[string]any{"choice": approvals[1]})
		reqIDs = append(reqIDs, reqID)
	}
	a.createNGO("idle")

	a.clock.Advance(73 * time.Hour)

	for _, reqID := range reqIDs {
		a.do("POST", "/v1/withdrawals/"+reqID+"/resolve", "", nil)
	}
	// Only released funds count toward the completed tally.
	if rr := a.do("POST", "/v1/withdrawals/"+reqIDs[0]+"/execute", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("execute: got %d: %s", rr.Code, rr.Body.String())
	}

	rr := a.do("GET", "/v1/ngos/top?n=10", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	items := decode(t, rr)["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 NGOs, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["name"] != "ngo-0" {
		t.Fatalf("best approval rate must rank first: %#v", first["name"])
	}
	if first["rank"].(float64) != 1 {
		t.Fatalf("rank mismatch: %#v", first["rank"])
	}
	last := items[2].(map[string]any)
	if last["name"] != "idle" {
		t.Fatalf("NGO without decided requests must rank last: %#v", last["name"])
	}
}

func TestStatsSummaryEndpoint(t *testing.T) {
	a := newAPI(t)
	ngoID := a.createNGO("helping hands")
	campaignID := a.createCampaign(ngoID, 1000)
	a.donate(campaignID, "donor-a", 600)

	rr := a.do("GET", "/v1/stats/summary", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	body := decode(t, rr)
	if body["ngos"].(float64) != 1 || body["campaigns"].(float64) != 1 {
		t.Fatalf("counts mismatch: %#v", body)
	}
	if body["total_raised"].(float64) != 600 {
		t.Fatalf("total_raised mismatch: %#v", body)
	}
}
