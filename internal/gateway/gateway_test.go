package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/Activ8Auto/ProAutoFill/infrastructure/errors"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/gateway"
)

const testToken = "tok-123"

type recordedCall struct {
	endpoint string
	outcome  string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveGatewayCall(endpoint, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{endpoint: endpoint, outcome: outcome})
}

// newBackend serves handler and returns a client pointed at it.
func newBackend(t *testing.T, handler http.HandlerFunc) (*gateway.Client, *fakeObserver) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	obs := &fakeObserver{}
	return gateway.NewClient(srv.URL+"/", srv.Client(), logger.NewNop(), gateway.WithObserver(obs)), obs
}

func requireBearer(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_MissingTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client, obs := newBackend(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	_, err := client.ListRuns(context.Background(), "")
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	require.ErrorIs(t, client.DeleteProfile(context.Background(), "", "p1"), gateway.ErrMissingToken)

	assert.Zero(t, hits.Load())
	assert.Empty(t, obs.calls)
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/jwt/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "nurse@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "abc", "token_type": "bearer"})
	})

	token, err := client.Login(context.Background(), "nurse@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestClient_LoginBadCredentials(t *testing.T) {
	t.Parallel()

	client, obs := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "LOGIN_BAD_CREDENTIALS"})
	})

	_, err := client.Login(context.Background(), "a", "b")
	httpErr, ok := infraerrors.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "LOGIN_BAD_CREDENTIALS", httpErr.Message)
	assert.Contains(t, httpErr.Body, "LOGIN_BAD_CREDENTIALS")

	require.Len(t, obs.calls, 1)
	assert.Equal(t, recordedCall{endpoint: "auth.login", outcome: gateway.OutcomeHTTPError}, obs.calls[0])
}

func TestClient_Register(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nurse@example.com", body["email"])
		writeJSON(w, http.StatusCreated, map[string]any{"id": "u1", "email": body["email"]})
	})

	user, err := client.Register(context.Background(), "nurse@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user["id"])
}

func TestClient_ListRuns(t *testing.T) {
	t.Parallel()

	client, obs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		assert.Equal(t, "/runs/", r.URL.Path)
		_, _ = io.WriteString(w, `{"runs":[{"id":1,"start_time":"2025-01-01T00:00:00","chosen_minutes":30},{"id":2,"start_time":null}]}`)
	})

	runs, err := client.ListRuns(context.Background(), testToken)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "1", runs[0].ID)
	require.NotNil(t, runs[0].StartTime)
	assert.Nil(t, runs[1].StartTime)

	assert.Equal(t, []recordedCall{{endpoint: "runs.list", outcome: gateway.OutcomeSuccess}}, obs.calls)
}

func TestClient_ListJobsShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrapped", body: `{"jobs":[{"job_id":"a"},{"job_id":"b"}]}`, want: 2},
		{name: "bare array", body: `[{"job_id":"a"}]`, want: 1},
		{name: "null", body: `null`, want: 0},
		{name: "wrapped null", body: `{"jobs":null}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/automation/jobs", r.URL.Path)
				_, _ = io.WriteString(w, tt.body)
			})

			jobs, err := client.ListJobs(context.Background(), testToken)
			require.NoError(t, err)
			assert.Len(t, jobs, tt.want)
			assert.NotNil(t, jobs)
		})
	}
}

func TestClient_ListDiagnosesRenamesFields(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		_, _ = io.WriteString(w, `[{
			"id": "d1", "user_id": "u1", "name": "GAD", "icd_code": "F41.1",
			"physical_exam": ["Neuro"], "teachings": ["Stress Management"],
			"prescribed_medications": ["Buspirone 10mg"], "exclusion_group": "Anxiety"
		}]`)
	})

	got, err := client.ListDiagnoses(context.Background(), testToken)
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, []string{"Stress Management"}, d.TeachingProvided)
	assert.Equal(t, []string{"Buspirone 10mg"}, d.Medications)
	assert.Equal(t, []string{"Neuro"}, d.PhysicalExam)
	assert.Equal(t, []string{}, d.LaboratoryTests)
	assert.Equal(t, "Anxiety", d.ExclusionGroup)
}

func TestClient_CreateDiagnosis(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/diagnoses/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "teaching_provided")
		assert.Equal(t, "u1", body["user_id"])

		body["id"] = "d9"
		body["teachings"] = body["teaching_provided"]
		delete(body, "teaching_provided")
		writeJSON(w, http.StatusOK, body)
	})

	created, err := client.CreateDiagnosis(context.Background(), testToken, domain.DiagnosisEntry{
		UserID: "u1", Name: "MDD", ICDCode: "F32.0", TeachingProvided: []string{"Sleep hygiene"},
	})
	require.NoError(t, err)
	assert.Equal(t, "d9", created.ID)
	assert.Equal(t, []string{"Sleep hygiene"}, created.TeachingProvided)
}

func TestClient_UpdateAndDeleteDiagnosis(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		methods []string
	)
	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodDelete {
			writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	updated, err := client.UpdateDiagnosis(context.Background(), testToken, "d 1", domain.DiagnosisEntry{Name: "MDD"})
	require.NoError(t, err)
	assert.Equal(t, "MDD", updated.Name, "empty response falls back to the submitted entry")

	require.NoError(t, client.DeleteDiagnosis(context.Background(), testToken, "d1"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PATCH /diagnoses/d 1", "DELETE /diagnoses/d1"}, methods)
}

func TestClient_Profiles(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		switch r.Method + " " + r.URL.Path {
		case "GET /profiles/":
			_, _ = io.WriteString(w, `[{"id":"p1","name":"Clinic","studentFunctionWeights":[{"level":"100% student","weight":100}]}]`)
		case "POST /profiles/":
			var p domain.AutomationProfile
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			writeJSON(w, http.StatusOK, p)
		case "PATCH /profiles/p1/":
			writeJSON(w, http.StatusOK, map[string]any{"id": "p1", "name": "Renamed"})
		case "DELETE /profiles/p1/":
			writeJSON(w, http.StatusOK, map[string]string{"detail": "Profile deleted"})
		case "PATCH /profiles/p1/defaults":
			var body map[string]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "default_values": body["default_values"]})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	list, err := client.ListProfiles(ctx, testToken)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].StudentFunctionWeights, 1)

	created, err := client.CreateProfile(ctx, testToken, domain.AutomationProfile{ID: "p2", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "p2", created.ID)

	updated, err := client.UpdateProfile(ctx, testToken, "p1", map[string]any{"name": "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, client.DeleteProfile(ctx, testToken, "p1"))

	defaults, err := client.PatchProfileDefaults(ctx, testToken, "p1", map[string]any{"faculty": "Dr. Lee"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Lee", defaults["faculty"])
}

func TestClient_UserDefaults(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1/defaults/", r.URL.Path)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"default_values":{"defaultLabs":["CBC"]}}`)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body, "default_values")
		writeJSON(w, http.StatusOK, map[string]any{"message": "User defaults updated successfully", "default_values": body["default_values"]})
	})
	ctx := context.Background()

	got, err := client.GetUserDefaults(ctx, testToken, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CBC"}, got.Labs())

	updated, err := client.UpdateUserDefaults(ctx, testToken, "u1", domain.UserDefaults{"faculty": "Dr. Lee"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Lee", updated.Faculty())
}

func TestClient_ProfileInfo(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1/profile-info/", r.URL.Path)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"dNumber":"D123"}`)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, body)
	})
	ctx := context.Background()

	info, err := client.GetProfileInfo(ctx, testToken, "u1")
	require.NoError(t, err)
	assert.Equal(t, "D123", info["dNumber"])

	info, err = client.UpdateProfileInfo(ctx, testToken, "u1", domain.ProfileInfo{"dNumber": "D999"})
	require.NoError(t, err)
	assert.Equal(t, "D999", info["dNumber"])
}

func TestClient_RemainingAndErrors(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /runs/remaining":
			_, _ = io.WriteString(w, `{"is_paid_user":false,"remaining_runs":7}`)
		case "GET /runs/errors":
			_, _ = io.WriteString(w, `[{"id":3,"status":"failed","details":{"user_fixable":true,"error":"2FA timeout"}}]`)
		case "DELETE /runs/errors":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	remaining, err := client.RemainingRuns(ctx, testToken)
	require.NoError(t, err)
	require.NotNil(t, remaining.RemainingRuns)
	assert.Equal(t, 7, *remaining.RemainingRuns)
	assert.True(t, remaining.ShowBanner())

	logs, err := client.ListErrorLogs(ctx, testToken)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "3", logs[0].ID)
	assert.Equal(t, "2FA timeout", logs[0].Message())

	require.NoError(t, client.ClearErrorLogs(ctx, testToken))
}

func TestClient_TriggerRunAndCheckout(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/automation/run/":
			var body domain.RunTrigger
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "p1", body.ProfileID)
			writeJSON(w, http.StatusOK, domain.RunTriggerResult{Message: "Automation started", TaskID: "t-1"})
		case "/stripe/create-checkout-session":
			writeJSON(w, http.StatusOK, domain.CheckoutSession{CheckoutURL: "https://checkout.example.com/s/1"})
		}
	})
	ctx := context.Background()

	res, err := client.TriggerRun(ctx, testToken, "p1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.TaskID)

	checkout, err := client.CreateCheckoutSession(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/s/1", checkout.CheckoutURL)
}

func TestClient_UnauthorizedIsDetectable(t *testing.T) {
	t.Parallel()

	client, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
	})

	_, err := client.ListProfiles(context.Background(), testToken)
	assert.True(t, infraerrors.IsUnauthorized(err))
}

func TestClient_NetworkErrorOutcome(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	obs := &fakeObserver{}
	client := gateway.NewClient(srv.URL, nil, nil, gateway.WithObserver(obs))

	_, err := client.ListRuns(context.Background(), testToken)
	require.Error(t, err)
	require.Len(t, obs.calls, 1)
	assert.Equal(t, gateway.OutcomeError, obs.calls[0].outcome)
}

func TestFieldMap(t *testing.T) {
	t.Parallel()

	t.Run("to local keeps existing local value", func(t *testing.T) {
		t.Parallel()

		raw := map[string]any{"medications": []any{"keep"}, "prescribed_medications": []any{"drop"}}
		gateway.ToLocal(raw)
		assert.Equal(t, []any{"keep"}, raw["medications"])
		assert.NotContains(t, raw, "prescribed_medications")
	})

	t.Run("to local fills null local value", func(t *testing.T) {
		t.Parallel()

		raw := map[string]any{"teaching_provided": nil, "teachings": []any{"x"}}
		gateway.ToLocal(raw)
		assert.Equal(t, []any{"x"}, raw["teaching_provided"])
	})

	t.Run("backend shape round trip", func(t *testing.T) {
		t.Parallel()

		raw, err := gateway.BackendShape(domain.DiagnosisEntry{Name: "MDD", Medications: []string{"Sertraline"}})
		require.NoError(t, err)
		assert.Contains(t, raw, "prescribed_medications")
		assert.Contains(t, raw, "teachings")
		assert.Contains(t, raw, "physical_exams")
		assert.NotContains(t, raw, "medications")

		gateway.ToLocal(raw)
		assert.Equal(t, []any{"Sertraline"}, raw["medications"])
	})
}
