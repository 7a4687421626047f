package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gameed/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestLeaderboardFeedPushesAwards(t *testing.T) {
	router := NewRouter(newServices(memory.NewStore()), Options{})
	server := httptest.NewServer(router)
	defer server.Close()

	teacher, _ := signup(t, router, "Tess", "tess@school.test", "teacher")
	missionID := createMission(t, router, teacher, 120)
	student, _ := signup(t, router, "Sam", "sam@school.test", "student")
	submissionID := submit(t, router, student, missionID).str("submission", "id")

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard?token=" + student
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The current ranking arrives first.
	_, payload := readNext(conn, t, "leaderboard")
	if leaders := leadersOf(payload); len(leaders) != 2 {
		t.Fatalf("expected two leaders in snapshot, got %v", payload)
	}

	res := do(t, router, http.MethodPut, "/api/missions/"+missionID+"/approve/"+submissionID, teacher, nil)
	if res.status != http.StatusOK {
		t.Fatalf("approve: status %d body %s", res.status, res.raw)
	}

	_, payload = readNext(conn, t, "leaderboard")
	leaders := leadersOf(payload)
	if len(leaders) == 0 || leaders[0]["name"] != "Sam" || leaders[0]["points"] != float64(120) || leaders[0]["level"] != float64(2) {
		t.Fatalf("expected Sam on top with 120 points, got %v", payload)
	}
}

func TestLeaderboardFeedRefreshAndUnknownMessages(t *testing.T) {
	router := NewRouter(newServices(memory.NewStore()), Options{})
	server := httptest.NewServer(router)
	defer server.Close()

	signup(t, router, "Ana", "ana@school.test", "student")
	token, _ := signup(t, router, "Ben", "ben@school.test", "student")

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, "leaderboard")

	if err := conn.WriteJSON(map[string]any{"type": "refresh", "payload": map[string]int{"limit": 1}}); err != nil {
		t.Fatalf("write refresh: %v", err)
	}
	_, payload := readNext(conn, t, "leaderboard")
	if leaders := leadersOf(payload); len(leaders) != 1 {
		t.Fatalf("expected one leader after refresh, got %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write unknown: %v", err)
	}
	_, payload = readNext(conn, t, "error")
	if payload["message"] != "unsupported message type" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestLeaderboardFeedRequiresToken(t *testing.T) {
	server := httptest.NewServer(NewRouter(newServices(memory.NewStore()), Options{}))
	defer server.Close()

	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/leaderboard"
	for _, u := range []string{base, base + "?token=forged"} {
		_, resp, err := websocket.DefaultDialer.Dial(u, nil)
		if err == nil {
			t.Fatalf("expected dial to %s to fail", u)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %v", u, resp)
		}
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func leadersOf(payload map[string]any) []map[string]any {
	raw, _ := payload["leaders"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
