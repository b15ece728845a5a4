package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matchday/backend/internal/models"
	"github.com/matchday/backend/internal/repository"
	"github.com/matchday/backend/internal/roster"
	"github.com/matchday/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// --- GameOps mock: records the last call, returns canned results ---

type mockOps struct {
	joinRole   string
	lastMatch  roster.Matcher
	lastSlot   int
	lastMethod string

	game         *models.Game
	lastParams   services.CreateGameParams
	joinResult   services.JoinResult
	leaveResult  services.LeaveResult
	optOutResult services.OptOutResult
	toggleResult services.ToggleResult
	billing      []services.BillingResult
	rosterText   string
	err          error
}

func (m *mockOps) CreateGame(_ context.Context, p services.CreateGameParams) (*models.Game, error) {
	m.lastParams = p
	return m.game, m.err
}

func (m *mockOps) ActiveGame(context.Context, uuid.UUID, string) (*models.Game, error) {
	return m.game, m.err
}

func (m *mockOps) JoinOutfield(_ context.Context, _ uuid.UUID, _, _ string) (services.JoinResult, error) {
	m.joinRole = roster.RoleOutfield
	return m.joinResult, m.err
}

func (m *mockOps) JoinGoalkeeper(_ context.Context, _ uuid.UUID, _, _ string) (services.JoinResult, error) {
	m.joinRole = roster.RoleGoalkeeper
	return m.joinResult, m.err
}

func (m *mockOps) AddGuest(_ context.Context, _ uuid.UUID, _, _, _ string, _ bool) (services.JoinResult, error) {
	return m.joinResult, m.err
}

func (m *mockOps) Leave(_ context.Context, _ uuid.UUID, match roster.Matcher) (services.LeaveResult, error) {
	m.lastMatch = match
	return m.leaveResult, m.err
}

func (m *mockOps) OptOut(_ context.Context, _ uuid.UUID, _, _ string) (services.OptOutResult, error) {
	return m.optOutResult, m.err
}

func (m *mockOps) MarkPaid(_ context.Context, _ uuid.UUID, slot int, method string) (services.ToggleResult, error) {
	m.lastSlot = slot
	m.lastMethod = method
	return m.toggleResult, m.err
}

func (m *mockOps) UnmarkPaid(_ context.Context, _ uuid.UUID, slot int) (services.ToggleResult, error) {
	m.lastSlot = slot
	return m.toggleResult, m.err
}

func (m *mockOps) Close(context.Context, uuid.UUID) ([]services.BillingResult, error) {
	return m.billing, m.err
}

func (m *mockOps) Cancel(context.Context, uuid.UUID) error { return m.err }

func (m *mockOps) RenderRoster(context.Context, uuid.UUID) (string, error) {
	return m.rosterText, m.err
}

// --- BalanceReader mock ---

type mockBalance struct {
	cents int64
	err   error
}

func (m *mockBalance) Balance(context.Context, uuid.UUID, string) (int64, error) {
	return m.cents, m.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestHandler(ops *mockOps, ledger *mockBalance) *GameHandler {
	if ledger == nil {
		ledger = &mockBalance{}
	}
	return NewGameHandler(ops, ledger, nil)
}

func gameRequest(method, path, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	r.SetPathValue("id", uuid.New().String())
	return r
}

// =====================================================================
// POST /v1/games
// =====================================================================

func TestCreateGame_Valid(t *testing.T) {
	ops := &mockOps{game: &models.Game{ID: uuid.New(), Status: models.GameStatusOpen}}
	h := newTestHandler(ops, nil)

	body := fmt.Sprintf(`{
		"workspace_id": %q,
		"chat_id": "chat-1",
		"title": "Friday Football",
		"price_cents": 1000,
		"max_slots": 12,
		"goalie_slots": 2
	}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ops.lastParams.ChatID != "chat-1" || ops.lastParams.MaxSlots != 12 || ops.lastParams.GoalieSlots != 2 {
		t.Errorf("params: %+v", ops.lastParams)
	}
}

func TestCreateGame_InvalidWorkspaceID(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	body := `{"workspace_id":"nope","chat_id":"chat-1","max_slots":12}`
	req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateGame_ChatAlreadyActive(t *testing.T) {
	h := newTestHandler(&mockOps{err: services.ErrActiveGameExists}, nil)

	body := fmt.Sprintf(`{"workspace_id":%q,"chat_id":"chat-1","max_slots":12}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

// =====================================================================
// GET /v1/workspaces/{workspace}/chats/{chat}/game
// =====================================================================

func TestActiveGame(t *testing.T) {
	g := &models.Game{ID: uuid.New(), Status: models.GameStatusOpen}
	h := newTestHandler(&mockOps{game: g}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workspaces/x/chats/chat-1/game", nil)
	req.SetPathValue("workspace", uuid.New().String())
	req.SetPathValue("chat", "chat-1")
	rec := httptest.NewRecorder()
	h.ActiveGame(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.Game
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != g.ID {
		t.Errorf("game id: got %s, want %s", got.ID, g.ID)
	}
}

func TestActiveGame_NoneForChat(t *testing.T) {
	h := newTestHandler(&mockOps{err: repository.ErrNotFound}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/workspaces/x/chats/chat-1/game", nil)
	req.SetPathValue("workspace", uuid.New().String())
	req.SetPathValue("chat", "chat-1")
	rec := httptest.NewRecorder()
	h.ActiveGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/games/{id}/join
// =====================================================================

func TestJoin_Outfield(t *testing.T) {
	ops := &mockOps{joinResult: services.JoinResult{Placed: true, Slot: 3}}
	h := newTestHandler(ops, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/join", `{"owner_id":"u1","name":"Ana"}`)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ops.joinRole != roster.RoleOutfield {
		t.Errorf("role dispatch: got %q, want outfield", ops.joinRole)
	}
	var res services.JoinResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Placed || res.Slot != 3 {
		t.Errorf("response: %+v", res)
	}
}

func TestJoin_GoalkeeperRole(t *testing.T) {
	ops := &mockOps{joinResult: services.JoinResult{Placed: true, Slot: 1}}
	h := newTestHandler(ops, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/join", `{"owner_id":"u1","name":"Ana","role":"goalkeeper"}`)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ops.joinRole != roster.RoleGoalkeeper {
		t.Errorf("role dispatch: got %q, want goalkeeper", ops.joinRole)
	}
}

func TestJoin_MissingFields(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/join", `{"owner_id":"u1"}`)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJoin_InvalidGameID(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/games/nope/join", strings.NewReader(`{"owner_id":"u1","name":"Ana"}`))
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestJoin_GameNotOpen(t *testing.T) {
	h := newTestHandler(&mockOps{err: services.ErrGameNotOpen}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/join", `{"owner_id":"u1","name":"Ana"}`)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJoin_GameNotFound(t *testing.T) {
	h := newTestHandler(&mockOps{err: repository.ErrNotFound}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/join", `{"owner_id":"u1","name":"Ana"}`)
	rec := httptest.NewRecorder()
	h.Join(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/games/{id}/guests
// =====================================================================

func TestAddGuest_Valid(t *testing.T) {
	ops := &mockOps{joinResult: services.JoinResult{Placed: true, Slot: 4, Label: "Diego (guest of Ana)"}}
	h := newTestHandler(ops, nil)

	body := `{"guest_name":"Diego","inviter_id":"u1","inviter_name":"Ana"}`
	req := gameRequest(http.MethodPost, "/v1/games/x/guests", body)
	rec := httptest.NewRecorder()
	h.AddGuest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res services.JoinResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Label != "Diego (guest of Ana)" {
		t.Errorf("label: %q", res.Label)
	}
}

func TestAddGuest_MissingInviter(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/guests", `{"guest_name":"Diego"}`)
	rec := httptest.NewRecorder()
	h.AddGuest(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/games/{id}/leave
// =====================================================================

func TestLeave_ByGuestName(t *testing.T) {
	ops := &mockOps{leaveResult: services.LeaveResult{Removed: true}}
	h := newTestHandler(ops, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/leave", `{"guest_name":"Diego"}`)
	rec := httptest.NewRecorder()
	h.Leave(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.lastMatch.GuestName != "Diego" || ops.lastMatch.OwnerID != "" {
		t.Errorf("matcher: %+v", ops.lastMatch)
	}
}

func TestLeave_NotOnRoster(t *testing.T) {
	h := newTestHandler(&mockOps{leaveResult: services.LeaveResult{Removed: false}}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/leave", `{"owner_id":"u1"}`)
	rec := httptest.NewRecorder()
	h.Leave(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLeave_EmptyMatcher(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/leave", `{}`)
	rec := httptest.NewRecorder()
	h.Leave(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/games/{id}/optout
// =====================================================================

func TestOptOut(t *testing.T) {
	ops := &mockOps{optOutResult: services.OptOutResult{Recorded: true, Removed: true}}
	h := newTestHandler(ops, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/optout", `{"owner_id":"u1","name":"Ana"}`)
	rec := httptest.NewRecorder()
	h.OptOut(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res services.OptOutResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Recorded || !res.Removed {
		t.Errorf("result: %+v", res)
	}
}

func TestOptOut_MissingName(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/optout", `{"owner_id":"u1"}`)
	rec := httptest.NewRecorder()
	h.OptOut(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/games/{id}/slots/{slot}/pay and /unpay
// =====================================================================

func payRequestFor(slot string, body string) *http.Request {
	req := gameRequest(http.MethodPost, fmt.Sprintf("/v1/games/x/slots/%s/pay", slot), body)
	req.SetPathValue("slot", slot)
	return req
}

func TestPay_WithMethod(t *testing.T) {
	ops := &mockOps{toggleResult: services.ToggleResult{Updated: true}}
	h := newTestHandler(ops, nil)

	rec := httptest.NewRecorder()
	h.Pay(rec, payRequestFor("5", `{"method":"cash"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ops.lastSlot != 5 || ops.lastMethod != "cash" {
		t.Errorf("call: slot=%d method=%q", ops.lastSlot, ops.lastMethod)
	}
}

func TestPay_BodyOptional(t *testing.T) {
	ops := &mockOps{toggleResult: services.ToggleResult{Updated: true}}
	h := newTestHandler(ops, nil)

	rec := httptest.NewRecorder()
	h.Pay(rec, payRequestFor("5", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.lastMethod != "" {
		t.Errorf("method: got %q, want empty", ops.lastMethod)
	}
}

func TestPay_SlotNotANumber(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	rec := httptest.NewRecorder()
	h.Pay(rec, payRequestFor("five", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPay_SlotOutOfRange(t *testing.T) {
	h := newTestHandler(&mockOps{err: fmt.Errorf("%w: 99", services.ErrSlotOutOfRange)}, nil)

	rec := httptest.NewRecorder()
	h.Pay(rec, payRequestFor("99", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPay_UnresolvedPayer(t *testing.T) {
	h := newTestHandler(&mockOps{err: services.ErrUnresolvedPayer}, nil)

	rec := httptest.NewRecorder()
	h.Pay(rec, payRequestFor("5", ""))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestUnpay(t *testing.T) {
	ops := &mockOps{toggleResult: services.ToggleResult{Updated: true}}
	h := newTestHandler(ops, nil)

	req := gameRequest(http.MethodPost, "/v1/games/x/slots/5/unpay", "")
	req.SetPathValue("slot", "5")
	rec := httptest.NewRecorder()
	h.Unpay(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ops.lastSlot != 5 {
		t.Errorf("slot: got %d, want 5", ops.lastSlot)
	}
}

// =====================================================================
// POST /v1/games/{id}/close and /cancel
// =====================================================================

func TestClose_ReturnsBillingResults(t *testing.T) {
	ops := &mockOps{billing: []services.BillingResult{
		{Slot: 3, Name: "Ana", PayerID: "u1", AmountCents: 1000, Billed: true},
		{Slot: 4, Name: "Bea", PayerID: "u2", AmountCents: 1000, Billed: true},
	}}
	h := newTestHandler(ops, nil)

	rec := httptest.NewRecorder()
	h.Close(rec, gameRequest(http.MethodPost, "/v1/games/x/close", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Billing []services.BillingResult `json:"billing"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Billing) != 2 {
		t.Fatalf("billing results: got %d, want 2", len(resp.Billing))
	}
}

func TestClose_PriceNotSet(t *testing.T) {
	h := newTestHandler(&mockOps{err: services.ErrPriceNotSet}, nil)

	rec := httptest.NewRecorder()
	h.Close(rec, gameRequest(http.MethodPost, "/v1/games/x/close", ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCancel(t *testing.T) {
	h := newTestHandler(&mockOps{}, nil)

	rec := httptest.NewRecorder()
	h.Cancel(rec, gameRequest(http.MethodPost, "/v1/games/x/cancel", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCancel_AfterClose(t *testing.T) {
	h := newTestHandler(&mockOps{err: services.ErrInvalidTransition}, nil)

	rec := httptest.NewRecorder()
	h.Cancel(rec, gameRequest(http.MethodPost, "/v1/games/x/cancel", ""))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

// =====================================================================
// GET /v1/games/{id}/roster
// =====================================================================

func TestRoster_PlainText(t *testing.T) {
	text := "Friday Football\n2026-03-06 20:00\nPay to: alias | Price: $10.00\n"
	h := newTestHandler(&mockOps{rosterText: text}, nil)

	rec := httptest.NewRecorder()
	h.Roster(rec, gameRequest(http.MethodGet, "/v1/games/x/roster", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type: %q", ct)
	}
	if rec.Body.String() != text {
		t.Errorf("body:\n%s", rec.Body.String())
	}
}

// =====================================================================
// GET /v1/balances/{workspace}/{owner}
// =====================================================================

func TestBalance(t *testing.T) {
	h := newTestHandler(&mockOps{}, &mockBalance{cents: 2500})

	req := httptest.NewRequest(http.MethodGet, "/v1/balances/x/u1", nil)
	req.SetPathValue("workspace", uuid.New().String())
	req.SetPathValue("owner", "u1")
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OwnerID      string `json:"owner_id"`
		BalanceCents int64  `json:"balance_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OwnerID != "u1" || resp.BalanceCents != 2500 {
		t.Errorf("response: %+v", resp)
	}
}

func TestBalance_InvalidWorkspace(t *testing.T) {
	h := newTestHandler(&mockOps{}, &mockBalance{})

	req := httptest.NewRequest(http.MethodGet, "/v1/balances/nope/u1", nil)
	req.SetPathValue("workspace", "nope")
	req.SetPathValue("owner", "u1")
	rec := httptest.NewRecorder()
	h.Balance(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
