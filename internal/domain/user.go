package domain

import (
	"encoding/json"
	"time"
)

// Well-known keys in the user defaults bag.
const (
	DefaultKeyPhysicalExams = "defaultPhysicalExams"
	DefaultKeyLabs          = "defaultLabs"
	DefaultKeyTeaching      = "defaultTeaching"
	DefaultKeyMeds          = "defaultMeds"
	DefaultKeyFaculty       = "faculty"
	DefaultKeyPreceptor     = "preceptor"
	DefaultKeyRotation      = "rotation"
)

// UserDefaults pre-populates new diagnosis and profile forms. The backend
// stores it as an opaque map; last write wins.
type UserDefaults map[string]any

// Strings returns the list stored under key, or nil.
func (d UserDefaults) Strings(key string) []string {
	raw, ok := d[key].([]any)
	if !ok {
		if typed, ok := d[key].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// String returns the string stored under key, or "".
func (d UserDefaults) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// PhysicalExams returns defaultPhysicalExams.
func (d UserDefaults) PhysicalExams() []string { return d.Strings(DefaultKeyPhysicalExams) }

// Labs returns defaultLabs.
func (d UserDefaults) Labs() []string { return d.Strings(DefaultKeyLabs) }

// Teaching returns defaultTeaching.
func (d UserDefaults) Teaching() []string { return d.Strings(DefaultKeyTeaching) }

// Meds returns defaultMeds.
func (d UserDefaults) Meds() []string { return d.Strings(DefaultKeyMeds) }

// Faculty returns the default faculty.
func (d UserDefaults) Faculty() string { return d.String(DefaultKeyFaculty) }

// Preceptor returns the default preceptor.
func (d UserDefaults) Preceptor() string { return d.String(DefaultKeyPreceptor) }

// Rotation returns the default rotation.
func (d UserDefaults) Rotation() string { return d.String(DefaultKeyRotation) }

// ProfileInfo is the user's account-level form data, passed through untouched.
type ProfileInfo map[string]any

// RemainingRuns reports the free-tier quota. RemainingRuns is nil for paid users.
type RemainingRuns struct {
	IsPaidUser    bool `json:"is_paid_user"`
	RemainingRuns *int `json:"remaining_runs"`
}

// ShowBanner reports whether the remaining-runs banner should be shown.
func (r RemainingRuns) ShowBanner() bool {
	return !r.IsPaidUser && r.RemainingRuns != nil
}

// ErrorLog is a failed run as reported by /runs/errors.
type ErrorLog struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// UnmarshalJSON accepts numeric ids and lenient timestamps.
func (e *ErrorLog) UnmarshalJSON(data []byte) error {
	type plain ErrorLog
	aux := struct {
		*plain
		ID        json.RawMessage `json:"id"`
		StartTime json.RawMessage `json:"start_time"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.ID = rawID(aux.ID)
	e.StartTime = parseTimestamp(aux.StartTime)
	return nil
}

// UserFixable reports whether details.user_fixable is the boolean true.
func (e ErrorLog) UserFixable() bool {
	v, _ := e.Details["user_fixable"].(bool)
	return v
}

// Message returns details.error, if any.
func (e ErrorLog) Message() string {
	s, _ := e.Details["error"].(string)
	return s
}

// RunTrigger asks the backend to start an automation job.
type RunTrigger struct {
	ProfileID string `json:"profile_id"`
}

// RunTriggerResult is the backend's acknowledgement.
type RunTriggerResult struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

// CheckoutSession carries the hosted checkout URL.
type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccessToken is the login response.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
