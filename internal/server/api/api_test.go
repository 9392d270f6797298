package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/store"
	"github.com/ayusman/thumbstick/internal/tracking"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProfileHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"defaults fill missing fields", `{"name":"basic"}`, http.StatusCreated},
		{"full profile", `{"name":"full","hand_side":"left","deadzone":0.01,"max_distance":0.1,"scale_factor":4,"deadzone_policy":"hold","reference_joint":"index_tip"}`, http.StatusCreated},
		{"missing name", `{"deadzone":0.01}`, http.StatusBadRequest},
		{"deadzone above max", `{"name":"bad","deadzone":0.2,"max_distance":0.1}`, http.StatusBadRequest},
		{"unknown side", `{"name":"bad","hand_side":"middle"}`, http.StatusBadRequest},
		{"invalid json", `{not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProfileHandler(newTestStore(t))

			rec := do(t, h, http.MethodPost, "/api/profiles", tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestProfileHandler_Workflow(t *testing.T) {
	s := newTestStore(t)
	h := NewProfileHandler(s)

	rec := do(t, h, http.MethodPost, "/api/profiles", `{"name":"main","deadzone_policy":"hold"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created store.Profile
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created profile should have an id")
	}
	if created.MaxDistance != signal.DefaultMaxDistance {
		t.Errorf("max_distance = %f, want default", created.MaxDistance)
	}
	if created.DeadzonePolicy != signal.HoldInDeadzone {
		t.Errorf("policy = %v, want hold", created.DeadzonePolicy)
	}

	if rec := do(t, h, http.MethodPost, "/api/profiles", `{"name":"main"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/profiles", "")
	var listed listProfilesResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Profiles) != 1 {
		t.Fatalf("listed %d profiles, want 1", len(listed.Profiles))
	}

	rec = do(t, h, http.MethodPut, "/api/profiles/"+created.ID, `{"scale_factor":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got, _ := s.Profiles().GetByID(created.ID)
	if got.ScaleFactor != 3 || got.Name != "main" {
		t.Errorf("after update: %+v", got)
	}

	if rec := do(t, h, http.MethodPut, "/api/profiles/"+created.ID, `{"scale_factor":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid update status = %d, want 400", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/api/profiles/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/profiles/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPatch, "/api/profiles", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d, want 405", rec.Code)
	}
}

func TestProfileHandler_EmptyList(t *testing.T) {
	h := NewProfileHandler(newTestStore(t))

	rec := do(t, h, http.MethodGet, "/api/profiles", "")

	if got := rec.Body.String(); got != "{\"profiles\":[]}\n" {
		t.Errorf("body = %q, want an empty array", got)
	}
}

func TestRecordingHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewRecordingHandler(s)

	r := &store.Recording{Name: "walk"}
	if err := s.Recordings().Create(r); err != nil {
		t.Fatal(err)
	}
	frames := []tracking.Frame{
		{Offset: 0, Update: hand.Update{}},
		{Offset: 500 * time.Millisecond, Update: hand.Update{}},
	}
	if err := s.Recordings().AppendFrames(r.ID, frames); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/recordings", "")
	var listed struct {
		Recordings []recordingResponse `json:"recordings"`
	}
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Recordings) != 1 {
		t.Fatalf("listed %d recordings, want 1", len(listed.Recordings))
	}
	if got := listed.Recordings[0]; got.Frames != 2 || got.DurationMs != 500 {
		t.Errorf("recording = %+v", got)
	}

	if rec := do(t, h, http.MethodGet, "/api/recordings/"+r.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/recordings/"+r.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/recordings/"+r.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/recordings", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestBindingHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewBindingHandler(s)

	p := store.NewProfile("p", signal.DefaultConfig())
	if err := s.Profiles().Create(p); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodPost, "/api/bindings", `{"entity":"ship","profile_id":"`+p.ID+`","movement_speed":2.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var b store.Binding
	json.NewDecoder(rec.Body).Decode(&b)
	if b.MovementSpeed != 2.5 {
		t.Errorf("speed = %f, want 2.5", b.MovementSpeed)
	}

	cases := []struct {
		name string
		body string
		want int
	}{
		{"duplicate entity", `{"entity":"ship","profile_id":"` + p.ID + `"}`, http.StatusConflict},
		{"unknown profile", `{"entity":"x","profile_id":"nope"}`, http.StatusBadRequest},
		{"missing entity", `{"profile_id":"` + p.ID + `"}`, http.StatusBadRequest},
		{"negative speed", `{"entity":"y","profile_id":"` + p.ID + `","movement_speed":-1}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/bindings", c.body); rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}

	rec = do(t, h, http.MethodGet, "/api/bindings?profile_id="+p.ID, "")
	var listed struct {
		Bindings []store.Binding `json:"bindings"`
	}
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Bindings) != 1 {
		t.Errorf("listed %d bindings, want 1", len(listed.Bindings))
	}

	if rec := do(t, h, http.MethodDelete, "/api/bindings/"+b.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/bindings/"+b.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
