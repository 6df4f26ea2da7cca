package models

import (
	"net/url"
	"time"
	_ "time/tzdata"
)

// UserSettings holds the recognized per-user preferences. Unknown keys are
// not accepted; zero values are replaced by DefaultUserSettings on load.
type UserSettings struct {
	EnterSend          bool   `json:"enter_send"`
	PinNavbar          bool   `json:"pin_navbar"`
	NotificationsSound bool   `json:"notifications_sound"`
	HomepageSubscribed bool   `json:"homepage_subscribed"`
	DisableGroupStyles bool   `json:"disable_groupstyles"`
	CSSStyle           string `json:"css_style"`
	ContentsPerPage    int    `json:"contents_per_page"`
	EntriesPerPage     int    `json:"entries_per_page"`
	Timezone           string `json:"timezone"`
	Notifications      struct {
		AutoRead bool `json:"auto_read"`
	} `json:"notifications"`
}

func DefaultUserSettings() UserSettings {
	return UserSettings{
		ContentsPerPage: 25,
		EntriesPerPage:  25,
		Timezone:        "Europe/Warsaw",
	}
}

// WithDefaults fills unset numeric and timezone fields.
func (s UserSettings) WithDefaults() UserSettings {
	d := DefaultUserSettings()
	if s.ContentsPerPage == 0 {
		s.ContentsPerPage = d.ContentsPerPage
	}
	if s.EntriesPerPage == 0 {
		s.EntriesPerPage = d.EntriesPerPage
	}
	if s.Timezone == "" {
		s.Timezone = d.Timezone
	}
	return s
}

// SettingsError names the first invalid setting.
type SettingsError struct {
	Field   string
	Message string
}

func (e *SettingsError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks ranges the UI relies on.
func (s UserSettings) Validate() error {
	if s.ContentsPerPage < 1 || s.ContentsPerPage > 100 {
		return &SettingsError{"contents_per_page", "must be between 1 and 100"}
	}
	if s.EntriesPerPage < 1 || s.EntriesPerPage > 100 {
		return &SettingsError{"entries_per_page", "must be between 1 and 100"}
	}
	if len(s.CSSStyle) > 250 {
		return &SettingsError{"css_style", "may not be greater than 250 characters"}
	}
	if s.CSSStyle != "" {
		u, err := url.Parse(s.CSSStyle)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &SettingsError{"css_style", "must be a valid url"}
		}
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil || s.Timezone == "" {
		return &SettingsError{"timezone", "unknown timezone"}
	}
	return nil
}
