package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/game2048/game/engine"
	"github.com/wricardo/game2048/game/service"
)

// recordedRequest is what the stub API saw for one call.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

// stubAPI serves canned JSON per path and records every request.
type stubAPI struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]interface{}
	status    int
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req.Body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.status
	resp, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	if !ok {
		resp = map[string]string{"error": "not found"}
		if status == 0 {
			w.WriteHeader(http.StatusNotFound)
		}
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *stubAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("no request reached the API")
	}
	return s.requests[len(s.requests)-1]
}

func discardLogger() log15.Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}

func newTestClient(t *testing.T, responses map[string]interface{}) (*Client, *stubAPI) {
	t.Helper()
	api := &stubAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, discardLogger()), api
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	if len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func sampleState() *engine.GameState {
	return &engine.GameState{
		GameID:    "g1",
		Dimension: 4,
		Grid: [][]engine.Tile{
			{2, 2, 0, 0},
			{4, 0, 0, 0},
			{0, 0, 128, 0},
			{0, 0, 0, 2048},
		},
		Score:         1204,
		MaxTile:       2048,
		State:         engine.StateActive,
		ConfigName:    "classic",
		TotalMoves:    311,
		PossibleMoves: []engine.Direction{engine.Up, engine.Left},
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/", nil)

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/abc/move": map[string]interface{}{"success": true, "score_delta": 8},
	})

	var result service.MoveResult
	err := client.apiCall(context.Background(), "POST", "/api/sessions/abc/move", map[string]interface{}{"direction": "left"}, &result)
	if err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if !result.Success || result.ScoreDelta != 8 {
		t.Errorf("Unexpected decoded result: %+v", result)
	}

	req := api.last(t)
	if req.Method != "POST" || req.Body["direction"] != "left" {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		responses map[string]interface{}
		wantErr   string
	}{
		{
			name:      "error message from body",
			status:    http.StatusBadRequest,
			responses: map[string]interface{}{"/api/x": map[string]interface{}{"error": "invalid direction", "code": 400}},
			wantErr:   "invalid direction",
		},
		{
			name:      "status without message",
			status:    http.StatusInternalServerError,
			responses: map[string]interface{}{"/api/x": map[string]interface{}{}},
			wantErr:   "API error: 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, api := newTestClient(t, tt.responses)
			api.status = tt.status

			err := client.apiCall(context.Background(), "GET", "/api/x", nil, nil)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", discardLogger())
	client.httpClient.Timeout = time.Second

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for unreachable API")
	}
}

func TestClient_apiCall_Cancelled(t *testing.T) {
	client, _ := newTestClient(t, map[string]interface{}{"/api/x": map[string]interface{}{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.apiCall(ctx, "GET", "/api/x", nil, nil); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestSessionPath(t *testing.T) {
	if got := sessionPath("a b/c", "/move"); got != "/api/sessions/a%20b%2Fc/move" {
		t.Errorf("Unexpected path: %s", got)
	}
}

func TestClient_handleCreateSession(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions": service.SessionInfo{
			ID:         "ab12",
			ConfigName: "big",
			GameState:  sampleState(),
		},
	})

	result, err := client.handleCreateSession(context.Background(), toolRequest("create_session", map[string]interface{}{
		"config_id": "big",
	}))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Created session: ab12") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}

	req := api.last(t)
	if req.Method != "POST" || req.Path != "/api/sessions" || req.Body["config_id"] != "big" {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestClient_handleMove(t *testing.T) {
	state := sampleState()
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/ab12/move": service.MoveResult{
			Success:    true,
			Direction:  "left",
			ScoreDelta: 4,
			GameState:  state,
			Events: []service.GameEvent{
				{Type: service.EventMerge, Message: "2+2 merged into 4", Value: 4},
			},
		},
	})

	result, err := client.handleMove(context.Background(), toolRequest("move", map[string]interface{}{
		"session_id": "ab12",
		"direction":  "left",
		"hold":       true,
		"intent":     "merge the top row",
	}))
	if err != nil {
		t.Fatalf("handleMove failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{"✓ Move successful", "Score +4", "- merge: 2+2 merged into 4"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}

	req := api.last(t)
	if req.Body["direction"] != "left" || req.Body["hold"] != true {
		t.Errorf("Unexpected body: %+v", req.Body)
	}
}

func TestClient_handleMove_APIError(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/zz99/move": map[string]interface{}{"error": "session \"zz99\": session not found"},
	})
	api.status = http.StatusNotFound

	result, err := client.handleMove(context.Background(), toolRequest("move", map[string]interface{}{
		"session_id": "zz99",
		"direction":  "up",
	}))
	if err != nil {
		t.Fatalf("handleMove returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "session not found") {
		t.Errorf("Expected API message, got: %s", text)
	}
}

func TestClient_handleBulkMove(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/ab12/bulk-move": service.BulkMoveResult{
			MovesExecuted:  2,
			RequestedMoves: 3,
			StoppedReason:  "2048 reached, waiting for a keep-playing choice",
			StopReasonCode: service.StopWonPendingChoice,
			StoppedOnMove:  3,
			StartScore:     100,
			EndScore:       2148,
			ScoreDelta:     2048,
			GameState:      sampleState(),
		},
	})

	t.Run("forwards moves", func(t *testing.T) {
		result, err := client.handleBulkMove(context.Background(), toolRequest("bulk_move", map[string]interface{}{
			"session_id": "ab12",
			"moves":      []interface{}{"left", "up", "right"},
		}))
		if err != nil {
			t.Fatalf("handleBulkMove failed: %v", err)
		}

		text := resultText(t, result)
		for _, want := range []string{"Executed 2/3 moves", "won_pending_choice", "Stopped at move 3"} {
			if !strings.Contains(text, want) {
				t.Errorf("Expected %q in result, got: %s", want, text)
			}
		}

		moves, _ := api.last(t).Body["moves"].([]interface{})
		if len(moves) != 3 || moves[0] != "left" {
			t.Errorf("Unexpected moves forwarded: %v", moves)
		}
	})

	t.Run("empty moves", func(t *testing.T) {
		result, err := client.handleBulkMove(context.Background(), toolRequest("bulk_move", map[string]interface{}{
			"session_id": "ab12",
			"moves":      []interface{}{},
		}))
		if err != nil {
			t.Fatalf("handleBulkMove failed: %v", err)
		}
		if !result.IsError {
			t.Error("Expected tool error for empty moves")
		}
	})
}

func TestClient_handleContinueGame(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/ab12/continue": service.MoveResult{Success: true, GameState: sampleState()},
	})

	result, err := client.handleContinueGame(context.Background(), toolRequest("continue_game", map[string]interface{}{
		"session_id": "ab12",
	}))
	if err != nil {
		t.Fatalf("handleContinueGame failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error when keep_playing is missing")
	}

	result, err = client.handleContinueGame(context.Background(), toolRequest("continue_game", map[string]interface{}{
		"session_id":   "ab12",
		"keep_playing": false,
	}))
	if err != nil {
		t.Fatalf("handleContinueGame failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, result))
	}
	if got := api.last(t).Body["keep_playing"]; got != false {
		t.Errorf("Expected keep_playing=false forwarded, got %v", got)
	}
}

func TestClient_handleSetBoardSize(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		wantBig interface{}
		hasBig  bool
	}{
		{
			name:   "big mode omitted",
			args:   map[string]interface{}{"session_id": "ab12", "dimension": float64(8)},
			hasBig: false,
		},
		{
			name:    "big mode explicit",
			args:    map[string]interface{}{"session_id": "ab12", "dimension": float64(8), "big_mode": false},
			wantBig: false,
			hasBig:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := sampleState()
			client, api := newTestClient(t, map[string]interface{}{
				"/api/sessions/ab12/board-size": map[string]interface{}{"message": "Board size set to 8x8", "state": state},
			})

			result, err := client.handleSetBoardSize(context.Background(), toolRequest("set_board_size", tt.args))
			if err != nil {
				t.Fatalf("handleSetBoardSize failed: %v", err)
			}
			if text := resultText(t, result); !strings.Contains(text, "Board size set to 8x8") {
				t.Errorf("Expected message in result, got: %s", text)
			}

			body := api.last(t).Body
			if body["dimension"] != float64(8) {
				t.Errorf("Expected dimension 8, got %v", body["dimension"])
			}
			big, ok := body["big_mode"]
			if ok != tt.hasBig || (ok && big != tt.wantBig) {
				t.Errorf("big_mode = %v (present %v), want %v (present %v)", big, ok, tt.wantBig, tt.hasBig)
			}
		})
	}
}

func TestClient_handleMoveHistory(t *testing.T) {
	client, api := newTestClient(t, map[string]interface{}{
		"/api/sessions/ab12/history": service.HistoryResponse{
			Moves: []engine.MoveHistoryEntry{
				{MoveNumber: 2, Direction: engine.Up, Moved: false, Score: 8, State: engine.StateActive},
				{MoveNumber: 1, Direction: engine.Left, Moved: true, ScoreDelta: 8, Score: 8, State: engine.StateActive},
			},
			TotalMoves: 2,
			Page:       1,
			PageSize:   5,
			TotalPages: 1,
		},
	})

	result, err := client.handleMoveHistory(context.Background(), toolRequest("move_history", map[string]interface{}{
		"session_id": "ab12",
		"page":       float64(1),
		"limit":      float64(5),
	}))
	if err != nil {
		t.Fatalf("handleMoveHistory failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Page 1/1", "1. left ✓ +8", "2. up · no change"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}

	if q := api.last(t).Query; q != "limit=5&page=1" {
		t.Errorf("Unexpected query: %s", q)
	}
}

func TestClient_handleDescribeTile(t *testing.T) {
	client, _ := newTestClient(t, map[string]interface{}{
		"/api/sessions/ab12/state": sampleState(),
	})

	result, err := client.handleDescribeTile(context.Background(), toolRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12",
		"row":        float64(0),
		"col":        float64(0),
	}))
	if err != nil {
		t.Fatalf("handleDescribeTile failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "SkyBlue") || !strings.Contains(text, "right (0,1)") {
		t.Errorf("Unexpected description: %s", text)
	}

	result, err = client.handleDescribeTile(context.Background(), toolRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12",
		"row":        float64(4),
		"col":        float64(0),
	}))
	if err != nil {
		t.Fatalf("handleDescribeTile failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for out-of-bounds cell")
	}
}

func TestClient_handleListConfigs(t *testing.T) {
	client, _ := newTestClient(t, map[string]interface{}{
		"/api/configs": []service.ConfigInfo{
			{ConfigID: "big", Name: "Big Board", Dimension: 8, BigMode: true, WinTile: 2048, SpawnPolicy: engine.SpawnFreeCell},
		},
	})

	result, err := client.handleListConfigs(context.Background(), toolRequest("list_configs", nil))
	if err != nil {
		t.Fatalf("handleListConfigs failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "config_id: big") || !strings.Contains(text, "8x8, big mode") {
		t.Errorf("Unexpected config list: %s", text)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080", discardLogger())

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"GAME OBJECTIVE:", "MOVES:", "HOLDING A DIRECTION:", "WINNING:", "GAME OVER:", "COLOR TIERS:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(sampleState())

	expected := []string{
		"Board: 4x4",
		"Score: 1204",
		"Max tile: 2048",
		"Moves: 311",
		"   2    2    .    .",
		"   .    .    . 2048",
		"Possible moves: up,left",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected '%s' in formatted output, got:\n%s", field, result)
		}
	}

	if got := formatGameState(nil); got != "No game state available" {
		t.Errorf("Unexpected nil rendering: %s", got)
	}
}

func TestFormatGameState_States(t *testing.T) {
	tests := []struct {
		state engine.SessionState
		want  string
	}{
		{engine.StateWonPendingChoice, "🎉 2048 REACHED!"},
		{engine.StateGameOverNoMoves, "Try another direction"},
		{engine.StateGameOverBoardFull, "💀 GAME OVER"},
		{engine.StateEnded, "🏁 GAME ENDED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			state := sampleState()
			state.State = tt.state
			state.PossibleMoves = nil

			if result := formatGameState(state); !strings.Contains(result, tt.want) {
				t.Errorf("Expected '%s' in result, got:\n%s", tt.want, result)
			}
		})
	}
}

func TestFormatMoveResult(t *testing.T) {
	tests := []struct {
		name   string
		result service.MoveResult
		want   string
	}{
		{"moved", service.MoveResult{Success: true}, "✓ Move successful"},
		{"no change", service.MoveResult{Success: false}, "✗ Nothing moved"},
		{"rejected", service.MoveResult{Rejected: true}, "✗ Move rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.result.GameState = sampleState()
			if got := formatMoveResult(&tt.result); !strings.Contains(got, tt.want) {
				t.Errorf("Expected '%s' in result, got:\n%s", tt.want, got)
			}
		})
	}
}

func TestFormatBulkMoveResult(t *testing.T) {
	result := &service.BulkMoveResult{
		MovesExecuted:  50,
		RequestedMoves: 60,
		Truncated:      true,
		Limit:          50,
		StartScore:     0,
		EndScore:       12,
		ScoreDelta:     12,
		Steps: []service.StepInfo{
			{Idx: 1, Dir: "left", Moved: true, ScoreDelta: 4, Score: 4, Spawned: &engine.Position{Row: 3, Col: 1}, State: engine.StateActive},
			{Idx: 2, Dir: "left", Moved: false, Score: 4, State: engine.StateGameOverNoMoves},
		},
		Events: []service.GameEvent{
			{Type: service.EventMerge, Value: 4},
			{Type: service.EventMerge, Value: 8},
		},
		GameState: sampleState(),
	}

	text := formatBulkMoveResult("ab12", result)
	expected := []string{
		"Session: ab12",
		"Executed 50/60 moves",
		"Truncated to the first 50 moves",
		"1. left ✓ +4 score=4 spawn=(3,1)",
		"2. left · +0 score=4 [game_over_no_moves]",
		"Merges: 2 (largest 8)",
	}
	for _, want := range expected {
		if !strings.Contains(text, want) {
			t.Errorf("Expected '%s' in output, got:\n%s", want, text)
		}
	}
}

func TestDescribeTile(t *testing.T) {
	state := sampleState()

	empty := describeTile(state, 3, 0)
	if !strings.Contains(empty, "Value: empty") || !strings.Contains(empty, "White") {
		t.Errorf("Unexpected empty cell description: %s", empty)
	}

	big := describeTile(state, 3, 3)
	if !strings.Contains(big, "Value: 2048") || !strings.Contains(big, "no equal neighbour") {
		t.Errorf("Unexpected 2048 description: %s", big)
	}
}
