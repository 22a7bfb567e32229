package session

import (
	"sync"
	"testing"
	"time"
)

func TestSession_Snapshot(t *testing.T) {
	s := New("tok", "llama3.1")
	snap := s.Snapshot()
	if snap.Token != "tok" || snap.DefaultModel != "llama3.1" || snap.Status != StatusUnknown {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if !snap.HasToken() {
		t.Error("HasToken() = false, want true")
	}
}

func TestSession_SnapshotIsIsolated(t *testing.T) {
	s := New("", "m")
	s.SetModels([]string{"a", "b"})

	snap := s.Snapshot()
	snap.Models[0] = "mutated"
	s.UpdateCredentials("new", "other")

	if snap.Token != "" || snap.DefaultModel != "m" {
		t.Errorf("earlier snapshot changed: %+v", snap)
	}
	if got := s.Snapshot().Models[0]; got != "a" {
		t.Errorf("Models[0] = %q, want a", got)
	}
}

func TestSession_UpdateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		model     string
		wantToken string
		wantModel string
	}{
		{name: "both", token: "t2", model: "m2", wantToken: "t2", wantModel: "m2"},
		{name: "empty model keeps current", token: "t3", model: "", wantToken: "t3", wantModel: "m1"},
		{name: "clear token", token: "", model: "m4", wantToken: "", wantModel: "m4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("t1", "m1")
			s.UpdateCredentials(tt.token, tt.model)
			snap := s.Snapshot()
			if snap.Token != tt.wantToken || snap.DefaultModel != tt.wantModel {
				t.Errorf("Snapshot() = %+v, want token %q model %q", snap, tt.wantToken, tt.wantModel)
			}
		})
	}
}

func TestSession_SetStatus(t *testing.T) {
	s := New("", "m")
	now := time.Now()
	if prev := s.SetStatus(StatusOnline, now); prev != StatusUnknown {
		t.Errorf("SetStatus() prev = %s, want UNKNOWN", prev)
	}
	if prev := s.SetStatus(StatusOffline, now); prev != StatusOnline {
		t.Errorf("SetStatus() prev = %s, want ONLINE", prev)
	}
	if snap := s.Snapshot(); snap.Status != StatusOffline || !snap.CheckedAt.Equal(now) {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New("", "m")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.UpdateCredentials("tok", "model")
			s.SetModels([]string{"x"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
}
