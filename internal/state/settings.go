package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
)

// Settings group names, equal to their storage keys.
const (
	GroupProfile       = storage.KeyProfile
	GroupNotifications = storage.KeyNotifications
	GroupSecurity      = storage.KeySecurity
	GroupAppearance    = storage.KeyAppearance
	GroupPreferences   = storage.KeyPreferences
)

var ErrUnknownGroup = errors.New("unknown settings group")

// Groups lists the settings groups in persistence order.
var Groups = []string{GroupProfile, GroupNotifications, GroupSecurity, GroupAppearance, GroupPreferences}

// Settings holds the five independently updated settings groups.
type Settings struct {
	mu   sync.RWMutex
	cur  core.Settings
	deps Deps
}

func NewSettings(deps Deps) *Settings {
	deps = deps.withDefaults()
	deps.Logger = deps.Logger.WithComponent(log.ComponentSettings)
	return &Settings{cur: core.DefaultSettings(), deps: deps}
}

func (s *Settings) UpdateProfile(p core.ProfilePatch) core.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Profile = s.cur.Profile.Apply(p)
	s.deps.Persister.Persist(GroupProfile, s.cur.Profile)
	return s.cur.Profile
}

func (s *Settings) UpdateNotifications(p core.NotificationsPatch) core.Notifications {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Notifications = s.cur.Notifications.Apply(p)
	s.deps.Persister.Persist(GroupNotifications, s.cur.Notifications)
	return s.cur.Notifications
}

func (s *Settings) UpdateSecurity(p core.SecurityPatch) core.Security {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Security = s.cur.Security.Apply(p)
	s.deps.Persister.Persist(GroupSecurity, s.cur.Security)
	return s.cur.Security
}

func (s *Settings) UpdateAppearance(p core.AppearancePatch) core.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Appearance = s.cur.Appearance.Apply(p)
	s.deps.Persister.Persist(GroupAppearance, s.cur.Appearance)
	return s.cur.Appearance
}

func (s *Settings) UpdatePreferences(p core.PreferencesPatch) core.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Preferences = s.cur.Preferences.Apply(p)
	s.deps.Persister.Persist(GroupPreferences, s.cur.Preferences)
	return s.cur.Preferences
}

// UpdateGroup merges a JSON patch into the named group and returns the
// updated group.
func (s *Settings) UpdateGroup(group string, raw json.RawMessage) (any, error) {
	switch group {
	case GroupProfile:
		var p core.ProfilePatch
		if err := decodePatch(raw, &p); err != nil {
			return nil, err
		}
		return s.UpdateProfile(p), nil
	case GroupNotifications:
		var p core.NotificationsPatch
		if err := decodePatch(raw, &p); err != nil {
			return nil, err
		}
		return s.UpdateNotifications(p), nil
	case GroupSecurity:
		var p core.SecurityPatch
		if err := decodePatch(raw, &p); err != nil {
			return nil, err
		}
		return s.UpdateSecurity(p), nil
	case GroupAppearance:
		var p core.AppearancePatch
		if err := decodePatch(raw, &p); err != nil {
			return nil, err
		}
		return s.UpdateAppearance(p), nil
	case GroupPreferences:
		var p core.PreferencesPatch
		if err := decodePatch(raw, &p); err != nil {
			return nil, err
		}
		if p.DefaultTransactionType != nil && !p.DefaultTransactionType.IsValid() {
			return nil, core.ErrInvalidType
		}
		return s.UpdatePreferences(p), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
}

func decodePatch(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode settings patch: %w", err)
	}
	return nil
}

// ResetAll restores all five groups to their defaults in one step.
func (s *Settings) ResetAll() core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = core.DefaultSettings()
	s.persistAll()
	s.deps.Logger.Info("Settings reset to defaults")
	return s.cur
}

func (s *Settings) persistAll() {
	s.deps.Persister.Persist(GroupProfile, s.cur.Profile)
	s.deps.Persister.Persist(GroupNotifications, s.cur.Notifications)
	s.deps.Persister.Persist(GroupSecurity, s.cur.Security)
	s.deps.Persister.Persist(GroupAppearance, s.cur.Appearance)
	s.deps.Persister.Persist(GroupPreferences, s.cur.Preferences)
}

func (s *Settings) Snapshot() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *Settings) Profile() core.Profile             { return s.Snapshot().Profile }
func (s *Settings) Notifications() core.Notifications { return s.Snapshot().Notifications }
func (s *Settings) Security() core.Security           { return s.Snapshot().Security }
func (s *Settings) Appearance() core.Appearance       { return s.Snapshot().Appearance }
func (s *Settings) Preferences() core.Preferences     { return s.Snapshot().Preferences }

func (s *Settings) hydrate(cur core.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = cur
}
