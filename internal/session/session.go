// Package session holds the process-wide client state: login status, the
// user profile, and the ordered list of predictive features the backend
// currently supports. It is hydrated once at startup and mutated only by
// the hydration and profile-update paths.
package session

import (
	"strings"

	"github.com/manishw7/air-quality-intelligence/internal/api"
)

// State is the injectable session context passed to each controller.
type State struct {
	LoggedIn bool
	User     *api.Profile
	Features []string
}

// New returns a logged-out state with no capabilities.
func New() *State {
	return &State{}
}

// HydrateFrom applies the session-status response. A hydration failure is
// non-fatal: the user is treated as logged out with an empty feature list
// and the rest of the application initializes normally.
func (s *State) HydrateFrom(status *api.SessionStatus, err error) {
	if err != nil || status == nil {
		s.LoggedIn = false
		s.User = nil
		s.Features = nil
		return
	}
	s.Features = append([]string(nil), status.Features...)
	s.LoggedIn = status.LoggedIn
	if status.LoggedIn {
		s.User = status.User
	} else {
		s.User = nil
	}
}

// ApplyProfileUpdate merges only the returned age/conditions fields into
// the existing profile. Other session fields are untouched and the
// profile is never replaced wholesale.
func (s *State) ApplyProfileUpdate(updated *api.Profile) {
	if updated == nil || s.User == nil {
		return
	}
	s.User.Age = updated.Age
	s.User.Conditions = updated.Conditions
}

// ClearUser drops the authenticated identity after a logout. The feature
// list is a backend capability, not a user attribute, so it survives.
func (s *State) ClearUser() {
	s.LoggedIn = false
	s.User = nil
}

// HasFeature reports whether the backend declared the named feature.
func (s *State) HasFeature(name string) bool {
	for _, feature := range s.Features {
		if feature == name {
			return true
		}
	}
	return false
}

// FilterReadings intersects a live reading map with the capability list,
// preserving feature order and ignoring unknown keys so backend feature
// additions never break the client.
func (s *State) FilterReadings(readings map[string]float64) map[string]float64 {
	filtered := make(map[string]float64, len(s.Features))
	for _, feature := range s.Features {
		if value, ok := readings[feature]; ok {
			filtered[feature] = value
		}
	}
	return filtered
}

// DisplayName is the identity string for the nav header.
func (s *State) DisplayName() string {
	if !s.LoggedIn || s.User == nil {
		return ""
	}
	return strings.TrimSpace(s.User.Username)
}
