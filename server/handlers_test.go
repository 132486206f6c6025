package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/gamebackend/logger"
	"github.com/wfunc/gamebackend/models"
	"github.com/wfunc/gamebackend/persistence"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init()
	os.Exit(m.Run())
}

func setupTestServer(t *testing.T) *APIServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store, err := persistence.NewGormDatabase(db)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewAPIServer(":0", store, nil)
}

func doJSON(t *testing.T, s *APIServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestSetupUserThenGetUser(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA", "username": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("setup status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/user/0xA", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var user models.User
	decode(t, w, &user)
	want := models.User{WalletAddress: "0xA", Username: "alice"}
	if user != want {
		t.Errorf("got %+v, want %+v", user, want)
	}
}

func TestSetupUser_UsernameTaken(t *testing.T) {
	s := setupTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA", "username": "alice"})
	w := doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xB", "username": "alice"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestSetupUser_MissingFields(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/user/0xNonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["error"] != "User not found" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestJoinRoomTwiceAndGetRoom(t *testing.T) {
	s := setupTestServer(t)

	for _, wallet := range []string{"0xA", "0xB", "0xA"} {
		w := doJSON(t, s, http.MethodPost, "/api/room/join",
			map[string]string{"roomId": "room1", "walletAddress": wallet})
		if w.Code != http.StatusOK {
			t.Fatalf("join status = %d, body %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/room/room1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get room status = %d", w.Code)
	}
	var room models.Room
	decode(t, w, &room)

	members := map[string]bool{}
	for _, u := range room.Users {
		members[u] = true
	}
	if len(room.Users) != 2 || !members["0xA"] || !members["0xB"] {
		t.Errorf("users = %v, want set {0xA, 0xB}", room.Users)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/room/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestStakeStatusRoundTrip(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/stake",
		map[string]interface{}{"walletAddress": "0xA", "isStaked": true})
	if w.Code != http.StatusOK {
		t.Fatalf("stake status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/user/is-staked/0xA", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("is-staked status = %d", w.Code)
	}
	var status models.StakeStatus
	decode(t, w, &status)
	if !status.IsStaked {
		t.Error("expected isStaked true")
	}
}

func TestUpdateScore(t *testing.T) {
	s := setupTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA", "username": "alice"})

	w := doJSON(t, s, http.MethodPost, "/api/user/update-score",
		map[string]interface{}{"walletAddress": "0xA", "kills": 7, "score": 420})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var user models.User
	decode(t, w, &user)
	if user.Kills != 7 || user.Score != 420 {
		t.Errorf("got kills=%d score=%d", user.Kills, user.Score)
	}

	w = doJSON(t, s, http.MethodPost, "/api/user/update-score",
		map[string]interface{}{"walletAddress": "0xNone", "kills": 1, "score": 1})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdateCurrentRoom_ResponseShape(t *testing.T) {
	s := setupTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA", "username": "alice"})

	w := doJSON(t, s, http.MethodPost, "/api/user/update-current-room",
		map[string]string{"walletAddress": "0xA", "currentRoom": "room1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	decode(t, w, &resp)
	if resp.Message == "" {
		t.Error("expected message field")
	}
	if resp.User.CurrentRoom != "room1" {
		t.Errorf("currentRoom = %q", resp.User.CurrentRoom)
	}

	// Missing currentRoom is a validation error.
	w = doJSON(t, s, http.MethodPost, "/api/user/update-current-room",
		map[string]string{"walletAddress": "0xA"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStakingHistoryNewestFirst(t *testing.T) {
	s := setupTestServer(t)

	for _, amount := range []float64{10, 20, 30} {
		w := doJSON(t, s, http.MethodPost, "/api/stake/history/add",
			map[string]interface{}{"walletAddress": "0xA", "amount": amount})
		if w.Code != http.StatusOK {
			t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/stake/history/0xA", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var records []models.StakingRecord
	decode(t, w, &records)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []float64{30, 20, 10} {
		if records[i].Amount != want {
			t.Errorf("records[%d].Amount = %v, want %v", i, records[i].Amount, want)
		}
	}
}

func TestStakingHistory_EmptyOK(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/stake/history/0xNone", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var records []models.StakingRecord
	decode(t, w, &records)
	if len(records) != 0 {
		t.Errorf("expected empty list, got %+v", records)
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	s := setupTestServer(t)

	entries := []map[string]interface{}{
		{"walletAddress": "0xA", "kills": 3, "score": 100, "roomId": "room1", "username": "alice", "gameTime": 61.5},
		{"walletAddress": "0xA", "kills": 1, "score": 40, "roomId": "room2", "username": "alice", "gameTime": 30},
		{"walletAddress": "0xB", "kills": 9, "score": 300, "roomId": "room1", "username": "bob", "gameTime": 61.5},
	}
	for _, e := range entries {
		w := doJSON(t, s, http.MethodPost, "/api/leaderboard/add", e)
		if w.Code != http.StatusOK {
			t.Fatalf("add status = %d, body %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/leaderboard/wallet/0xA", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by wallet status = %d", w.Code)
	}
	var byWallet []models.LeaderboardEntry
	decode(t, w, &byWallet)
	if len(byWallet) != 2 {
		t.Errorf("expected 2 entries for 0xA, got %d", len(byWallet))
	}

	w = doJSON(t, s, http.MethodGet, "/api/leaderboard/room/room1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("by room status = %d", w.Code)
	}
	var byRoom []models.LeaderboardEntry
	decode(t, w, &byRoom)
	if len(byRoom) != 2 {
		t.Errorf("expected 2 entries for room1, got %d", len(byRoom))
	}

	w = doJSON(t, s, http.MethodGet, "/api/leaderboard/room/empty", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty room status = %d", w.Code)
	}
}

func TestRoomsPlayedEndpoint(t *testing.T) {
	s := setupTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/user/setup",
		map[string]string{"walletAddress": "0xA", "username": "alice"})
	for _, join := range []map[string]string{
		{"roomId": "room1", "walletAddress": "0xA"},
		{"roomId": "room1", "walletAddress": "0xB"},
	} {
		doJSON(t, s, http.MethodPost, "/api/room/join", join)
	}

	w := doJSON(t, s, http.MethodGet, "/api/user/rooms-played/0xA", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var played []models.RoomPlayed
	decode(t, w, &played)
	if len(played) != 1 || played[0].RoomID != "room1" {
		t.Fatalf("unexpected payload: %+v", played)
	}
	names := map[string]string{}
	for _, m := range played[0].Users {
		names[m.WalletAddress] = m.Username
	}
	if names["0xA"] != "alice" || names["0xB"] != "Unknown" {
		t.Errorf("wrong mapping: %v", names)
	}

	w = doJSON(t, s, http.MethodGet, "/api/user/rooms-played/0xLoner", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := setupTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
