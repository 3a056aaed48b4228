package session

import (
	"errors"
	"testing"

	"github.com/manishw7/air-quality-intelligence/internal/api"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestHydrateFromFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	state := New()
	state.HydrateFrom(nil, errors.New("network down"))

	if state.LoggedIn {
		t.Fatalf("expected logged-out state after hydration failure")
	}
	if state.User != nil {
		t.Fatalf("expected nil user after hydration failure")
	}
	if len(state.Features) != 0 {
		t.Fatalf("expected empty feature list, got %v", state.Features)
	}
}

func TestHydrateFromAppliesSessionPayload(t *testing.T) {
	t.Parallel()

	state := New()
	state.HydrateFrom(&api.SessionStatus{
		LoggedIn: true,
		User:     &api.Profile{Username: "asha", Age: intPtr(64)},
		Features: []string{"PM2.5", "PM10", "Temp"},
	}, nil)

	if !state.LoggedIn {
		t.Fatalf("expected logged-in state")
	}
	if state.DisplayName() != "asha" {
		t.Fatalf("unexpected display name %q", state.DisplayName())
	}
	if len(state.Features) != 3 || state.Features[0] != "PM2.5" {
		t.Fatalf("unexpected features %v", state.Features)
	}
}

func TestApplyProfileUpdateMergesOnlyProfileFields(t *testing.T) {
	t.Parallel()

	state := New()
	state.HydrateFrom(&api.SessionStatus{
		LoggedIn: true,
		User:     &api.Profile{Username: "asha", Age: intPtr(30)},
		Features: []string{"PM2.5"},
	}, nil)

	state.ApplyProfileUpdate(&api.Profile{Age: intPtr(65), Conditions: strPtr("asthma")})

	if state.User.Username != "asha" {
		t.Fatalf("username must survive a profile update, got %q", state.User.Username)
	}
	if state.User.Age == nil || *state.User.Age != 65 {
		t.Fatalf("expected merged age 65, got %v", state.User.Age)
	}
	if state.User.Conditions == nil || *state.User.Conditions != "asthma" {
		t.Fatalf("expected merged conditions, got %v", state.User.Conditions)
	}
	if !state.LoggedIn || len(state.Features) != 1 {
		t.Fatalf("profile update must not touch other session fields")
	}
}

func TestApplyProfileUpdateIgnoredWhenLoggedOut(t *testing.T) {
	t.Parallel()

	state := New()
	state.ApplyProfileUpdate(&api.Profile{Age: intPtr(40)})
	if state.User != nil {
		t.Fatalf("expected no profile to materialize for a logged-out session")
	}
}

func TestFilterReadingsKeepsFeatureOrderAndDropsUnknowns(t *testing.T) {
	t.Parallel()

	state := New()
	state.Features = []string{"PM2.5", "PM10", "Humidity"}

	filtered := state.FilterReadings(map[string]float64{
		"PM10":        60,
		"PM2.5":       40,
		"Mystery_New": 12,
	})

	if len(filtered) != 2 {
		t.Fatalf("expected 2 matched readings, got %d (%v)", len(filtered), filtered)
	}
	if filtered["PM2.5"] != 40 || filtered["PM10"] != 60 {
		t.Fatalf("unexpected filtered values: %v", filtered)
	}
	if _, ok := filtered["Mystery_New"]; ok {
		t.Fatalf("unknown backend key must be ignored")
	}
}

func TestClearUserKeepsFeatures(t *testing.T) {
	t.Parallel()

	state := New()
	state.HydrateFrom(&api.SessionStatus{
		LoggedIn: true,
		User:     &api.Profile{Username: "asha"},
		Features: []string{"PM2.5"},
	}, nil)

	state.ClearUser()

	if state.LoggedIn || state.User != nil {
		t.Fatalf("expected identity dropped after logout")
	}
	if len(state.Features) != 1 {
		t.Fatalf("feature capability list must survive logout")
	}
}
