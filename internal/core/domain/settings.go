package domain

import "time"

// ThemeSettings holds the dashboard colour palette.
type ThemeSettings struct {
	Primary             string `json:"primary" firestore:"primary"`
	Surface             string `json:"surface" firestore:"surface"`
	SurfaceMuted        string `json:"surfaceMuted" firestore:"surfaceMuted"`
	SurfaceSubtle       string `json:"surfaceSubtle" firestore:"surfaceSubtle"`
	BackgroundAccentOne string `json:"backgroundAccentOne" firestore:"backgroundAccentOne"`
	BackgroundAccentTwo string `json:"backgroundAccentTwo" firestore:"backgroundAccentTwo"`
}

// SiteSettings holds dashboard branding copy and panel toggles.
type SiteSettings struct {
	BrandLabel      string `json:"brandLabel" firestore:"brandLabel"`
	BrandHeading    string `json:"brandHeading" firestore:"brandHeading"`
	HeaderNote      string `json:"headerNote" firestore:"headerNote"`
	HeaderGreeting  string `json:"headerGreeting" firestore:"headerGreeting"`
	GuildName       string `json:"guildName" firestore:"guildName"`
	ShowGuildCard   bool   `json:"showGuildCard" firestore:"showGuildCard"`
	ShowTopicsPanel bool   `json:"showTopicsPanel" firestore:"showTopicsPanel"`
}

// StaffSettings is the singleton dashboard configuration record.
type StaffSettings struct {
	Theme     ThemeSettings
	Site      SiteSettings
	UpdatedAt time.Time
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() ThemeSettings {
	return ThemeSettings{
		Primary:             "#6366f1",
		Surface:             "#101225",
		SurfaceMuted:        "#1b1e3b",
		SurfaceSubtle:       "#2a2e5c",
		BackgroundAccentOne: "#1f2353",
		BackgroundAccentTwo: "#2f347a",
	}
}

// DefaultSite returns the built-in branding.
func DefaultSite() SiteSettings {
	return SiteSettings{
		BrandLabel:      "GameMod",
		BrandHeading:    "Control Center",
		HeaderNote:      "Operations Checkpoint",
		HeaderGreeting:  "Welcome back, Commander Vega",
		GuildName:       "NovaWatch",
		ShowGuildCard:   true,
		ShowTopicsPanel: true,
	}
}

// DefaultStaffSettings returns a fresh copy of the defaults.
func DefaultStaffSettings(now time.Time) StaffSettings {
	return StaffSettings{
		Theme:     DefaultTheme(),
		Site:      DefaultSite(),
		UpdatedAt: Timestamp(now),
	}
}

// ResolveStaffSettings fills a stored record whose sub-objects may be
// missing; theme and site fall back to defaults independently.
func ResolveStaffSettings(theme *ThemeSettings, site *SiteSettings, updatedAt time.Time) *StaffSettings {
	settings := &StaffSettings{
		Theme:     DefaultTheme(),
		Site:      DefaultSite(),
		UpdatedAt: updatedAt,
	}
	if theme != nil {
		settings.Theme = *theme
	}
	if site != nil {
		settings.Site = *site
	}
	return settings
}

// Merge replaces each provided sub-object wholesale.
func (s *StaffSettings) Merge(theme *ThemeSettings, site *SiteSettings, now time.Time) {
	if theme != nil {
		s.Theme = *theme
	}
	if site != nil {
		s.Site = *site
	}
	s.UpdatedAt = Timestamp(now)
}
