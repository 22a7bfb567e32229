package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ragchat/internal/session"
)

func TestSessionHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		body         string
		wantStatus   int
		wantToken    bool
		wantModel    string
		wantSessTok  string
		wantSessModl string
	}{
		{
			name:         "get",
			method:       http.MethodGet,
			wantStatus:   http.StatusOK,
			wantToken:    true,
			wantModel:    "llama3.1",
			wantSessTok:  "old",
			wantSessModl: "llama3.1",
		},
		{
			name:         "put replaces token and model",
			method:       http.MethodPut,
			body:         `{"token":"new","default_model":"mistral"}`,
			wantStatus:   http.StatusOK,
			wantToken:    true,
			wantModel:    "mistral",
			wantSessTok:  "new",
			wantSessModl: "mistral",
		},
		{
			name:         "put without model keeps it",
			method:       http.MethodPut,
			body:         `{"token":""}`,
			wantStatus:   http.StatusOK,
			wantToken:    false,
			wantModel:    "llama3.1",
			wantSessTok:  "",
			wantSessModl: "llama3.1",
		},
		{
			name:         "bad body",
			method:       http.MethodPut,
			body:         "nope",
			wantStatus:   http.StatusBadRequest,
			wantSessTok:  "old",
			wantSessModl: "llama3.1",
		},
		{
			name:         "method not allowed",
			method:       http.MethodPost,
			wantStatus:   http.StatusMethodNotAllowed,
			wantSessTok:  "old",
			wantSessModl: "llama3.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := session.New("old", "llama3.1")
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/api/session", bytes.NewBufferString(tt.body))
			NewSessionHandler(sess).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			snap := sess.Snapshot()
			if snap.Token != tt.wantSessTok || snap.DefaultModel != tt.wantSessModl {
				t.Errorf("session = %q/%q, want %q/%q", snap.Token, snap.DefaultModel, tt.wantSessTok, tt.wantSessModl)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if strings.Contains(w.Body.String(), "old") || strings.Contains(w.Body.String(), `"new"`) {
				t.Errorf("response leaks the token: %s", w.Body.String())
			}
			var resp SessionResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.HasToken != tt.wantToken || resp.DefaultModel != tt.wantModel {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
