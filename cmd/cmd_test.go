package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Activ8Auto/ProAutoFill/cmd"
	infrajwt "github.com/Activ8Auto/ProAutoFill/infrastructure/jwt"
	"github.com/Activ8Auto/ProAutoFill/internal/service"
)

type backend struct {
	mu       sync.Mutex
	requests []string
	created  map[string]any
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
}

func (b *backend) seen(req string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r == req {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()

	b := &backend{}
	start := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/jwt/login", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if r.FormValue("username") != "nurse@example.com" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]any{"detail": "LOGIN_BAD_CREDENTIALS"})
			return
		}
		writeJSON(w, map[string]any{"access_token": "tok-abc", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /runs/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, map[string]any{"runs": []map[string]any{{
			"id":                  1,
			"start_time":          start,
			"status":              "completed",
			"chosen_minutes":      30,
			"selected_gender":     "Female",
			"selected_visit_type": "Telehealth",
			"selected_diagnoses":  []map[string]any{{"name": "Hypertension"}},
		}}})
	})
	mux.HandleFunc("GET /runs/remaining", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, map[string]any{"is_paid_user": false, "remaining_runs": 3})
	})
	mux.HandleFunc("GET /runs/errors", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, []map[string]any{
			{"id": 7, "status": "failed", "details": map[string]any{"user_fixable": true, "error": "Preceptor not found"}},
			{"id": 8, "status": "failed", "details": map[string]any{"user_fixable": false, "error": "Timeout"}},
		})
	})
	mux.HandleFunc("DELETE /runs/errors", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /automation/jobs", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, map[string]any{"jobs": []map[string]any{{
			"job_id":         "job-1",
			"profile_name":   "Peds",
			"target_minutes": 120,
			"total_minutes":  30,
			"status":         "in_progress",
			"runs":           []map[string]any{{"id": 1, "start_time": start, "chosen_minutes": 30}},
		}}})
	})
	mux.HandleFunc("POST /automation/run/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, map[string]any{"message": "started", "task_id": "task-9"})
	})
	mux.HandleFunc("GET /profiles/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, []map[string]any{{"id": "p1", "name": "Peds", "targetHours": 2, "visitType": "Telehealth"}})
	})
	mux.HandleFunc("DELETE /profiles/{id}/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /diagnoses/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		writeJSON(w, []map[string]any{{
			"id": "d1", "name": "Hypertension", "icd_code": "I10", "teachings": []string{"Diet"},
		}})
	})
	mux.HandleFunc("POST /diagnoses/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.created = body
		b.mu.Unlock()
		body["id"] = "d2"
		writeJSON(w, body)
	})
	mux.HandleFunc("DELETE /diagnoses/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := infrajwt.Sign("", "user-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return token
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PROAUTOFILL_TOKEN", "")
	t.Setenv("PROAUTOFILL_API_URL", "")
	t.Setenv("PROAUTOFILL_TIMEFRAME", "")

	var out bytes.Buffer
	root := cmd.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "proautofill version "+cmd.Version)
}

func TestLogin(t *testing.T) {
	_, srv := newBackend(t)

	out, err := run(t, "login", "--api-url", srv.URL, "--email", "nurse@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc\n", out)

	_, err = run(t, "login", "--api-url", srv.URL, "--email", "nurse@example.com", "--password", "wrong")
	require.Error(t, err)

	_, err = run(t, "login", "--api-url", srv.URL)
	require.Error(t, err)
}

func TestCommandsRequireToken(t *testing.T) {
	_, srv := newBackend(t)

	_, err := run(t, "jobs", "list", "--api-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestTokenFromEnv(t *testing.T) {
	b, srv := newBackend(t)

	var out bytes.Buffer
	t.Setenv("PROAUTOFILL_TOKEN", "tok-env")
	t.Setenv("PROAUTOFILL_API_URL", srv.URL)
	root := cmd.NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"errors", "clear"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.True(t, b.seen("DELETE /runs/errors"))
	assert.Contains(t, out.String(), "Error logs cleared")
}

func TestDashboard(t *testing.T) {
	_, srv := newBackend(t)

	out, err := run(t, "dashboard", "--api-url", srv.URL, "--token", testToken(t), "--timeframe", "day")
	require.NoError(t, err)

	assert.Contains(t, out, "Free Tier: You have 3 automation runs remaining.")
	assert.Contains(t, out, "Last day: 1 runs, 0h 30m")
	assert.Contains(t, out, "Female")
	assert.Contains(t, out, "Hypertension")
	assert.Contains(t, out, "Telehealth")
}

func TestDashboard_TimeframeFromEnv(t *testing.T) {
	_, srv := newBackend(t)

	var out bytes.Buffer
	t.Setenv("PROAUTOFILL_TOKEN", testToken(t))
	t.Setenv("PROAUTOFILL_API_URL", srv.URL)
	t.Setenv("PROAUTOFILL_TIMEFRAME", "month")
	root := cmd.NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"dashboard"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Last month: 1 runs")
}

func TestDashboard_RejectsUnknownTimeframe(t *testing.T) {
	_, srv := newBackend(t)

	_, err := run(t, "dashboard", "--api-url", srv.URL, "--token", testToken(t), "--timeframe", "year")
	require.Error(t, err)
}

func TestJobsList(t *testing.T) {
	_, srv := newBackend(t)

	out, err := run(t, "jobs", "list", "--api-url", srv.URL, "--token", testToken(t))
	require.NoError(t, err)
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "Peds")
	assert.Contains(t, out, "30 / 120")
	assert.Contains(t, out, "Page 1 of 1")

	out, err = run(t, "jobs", "list", "--all", "--page-size", "1", "--api-url", srv.URL, "--token", testToken(t))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "Page 1 of 1"))
}

func TestProfiles(t *testing.T) {
	b, srv := newBackend(t)
	token := testToken(t)

	out, err := run(t, "profiles", "list", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "Peds")

	out, err = run(t, "profiles", "delete", "p1", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Profile p1 deleted")
	assert.True(t, b.seen("DELETE /profiles/p1/"))

	out, err = run(t, "profiles", "run", "p1", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "task-9")

	_, err = run(t, "profiles", "delete", "--api-url", srv.URL, "--token", token)
	require.Error(t, err)
}

func TestDiagnoses(t *testing.T) {
	b, srv := newBackend(t)
	token := testToken(t)

	out, err := run(t, "diagnoses", "list", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Hypertension")
	assert.Contains(t, out, "I10")

	out, err = run(t, "diagnoses", "list", "--raw", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, []any{"Diet"}, raw[0]["teachings"])
	assert.NotContains(t, raw[0], "teaching_provided")

	out, err = run(t, "dx", "create", "--api-url", srv.URL, "--token", token,
		"--name", "Asthma", "--icd-code", "J45", "--medications", "Albuterol,Fluticasone")
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnosis created (d2)")
	b.mu.Lock()
	assert.Equal(t, "user-1", b.created["user_id"])
	assert.Equal(t, []any{"Albuterol", "Fluticasone"}, b.created["medications"])
	b.mu.Unlock()

	_, err = run(t, "dx", "create", "--api-url", srv.URL, "--token", token, "--name", "Asthma")
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = run(t, "diagnoses", "delete", "d1", "--api-url", srv.URL, "--token", token)
	require.NoError(t, err)
	assert.True(t, b.seen("DELETE /diagnoses/d1"))
}

func TestErrorsList(t *testing.T) {
	_, srv := newBackend(t)

	out, err := run(t, "errors", "list", "--api-url", srv.URL, "--token", testToken(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Preceptor not found")
	assert.NotContains(t, out, "Timeout")
}
