package types

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestNewStatusError(t *testing.T) {
	resp := NewStatusError(AreaGame, http.StatusConflict, "", nil)
	if resp.Error.Code != "GAME_409" {
		t.Errorf("code = %s, want GAME_409", resp.Error.Code)
	}
	if resp.Error.Message != "Conflict" {
		t.Errorf("message = %q, want Conflict", resp.Error.Message)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"error":{"code":"GAME_409","message":"Conflict"}}` {
		t.Errorf("json = %s", data)
	}
}
