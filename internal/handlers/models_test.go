package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"go.uber.org/mock/gomock"

	"ragchat/internal/contextutil"
	"ragchat/internal/llm"
	"ragchat/internal/monitor/mocks"
	"ragchat/internal/session"
)

func TestModelsHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockModelLister(ctrl)
	sess := session.New("secret", "llama3.1")

	lister.EXPECT().ListModels(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]llm.ModelDescriptor, error) {
		if token, _ := contextutil.TokenFromContext(ctx); token != "secret" {
			t.Errorf("token = %q, want session token", token)
		}
		return []llm.ModelDescriptor{{Name: "llama3.1"}, {Name: "mistral"}}, nil
	})

	w := httptest.NewRecorder()
	NewModelsHandler(lister, sess).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ModelsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	want := []string{"llama3.1", "mistral"}
	if !slices.Equal(resp.Models, want) || resp.DefaultModel != "llama3.1" {
		t.Errorf("response = %+v", resp)
	}
	if got := sess.Snapshot().Models; !slices.Equal(got, want) {
		t.Errorf("session models = %v, want %v", got, want)
	}
}

func TestModelsHandler_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockModelLister(ctrl)
	handler := NewModelsHandler(lister, session.New("", "m"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/models", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}

	lister.EXPECT().ListModels(gomock.Any()).Return(nil, errors.New("connection refused"))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}
