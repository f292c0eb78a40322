package domain

import "time"

// AppState is the explicit per-session dashboard state: the last search,
// its normalized records and the active filter. The core stays stateless;
// services load and save this struct around each user action.
type AppState struct {
	SessionID string        `json:"session_id"`
	Query     *SearchQuery  `json:"query,omitempty"`
	Channel   *ChannelInfo  `json:"channel,omitempty"`
	Records   []VideoRecord `json:"records"`
	Skipped   int           `json:"skipped"`
	Filter    Filter        `json:"filter"`
	Saved     bool          `json:"saved"`
	Warnings  []string      `json:"warnings,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewAppState returns an empty state for a session.
func NewAppState(sessionID string) *AppState {
	return &AppState{
		SessionID: sessionID,
		Records:   []VideoRecord{},
		UpdatedAt: time.Now().UTC(),
	}
}

// HasResults reports whether a search has been run in this session.
func (s *AppState) HasResults() bool {
	return s.Query != nil
}

// Filtered returns the records passing the active filter.
func (s *AppState) Filtered() []VideoRecord {
	return s.Filter.Apply(s.Records)
}

// ReplaceResults stores a new result set and resets the filter and save flag.
func (s *AppState) ReplaceResults(q SearchQuery, channel *ChannelInfo, records []VideoRecord, skipped int) {
	s.Query = &q
	s.Channel = channel
	s.Records = records
	s.Skipped = skipped
	s.Filter = Filter{}
	s.Saved = false
	s.Warnings = nil
	s.Touch()
}

// Warn appends a user-visible warning, keeping the most recent ones.
func (s *AppState) Warn(msg string) {
	const maxWarnings = 5
	s.Warnings = append(s.Warnings, msg)
	if len(s.Warnings) > maxWarnings {
		s.Warnings = s.Warnings[len(s.Warnings)-maxWarnings:]
	}
}

// Touch bumps UpdatedAt.
func (s *AppState) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
