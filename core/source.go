package core

import "strings"

// ContextSource identifies where a chunk was observed.
type ContextSource string

const (
	SourceSlack         ContextSource = "slack"
	SourceMail          ContextSource = "mail"
	SourceCalendar      ContextSource = "calendar"
	SourceNotes         ContextSource = "notes"
	SourceClipboard     ContextSource = "clipboard"
	SourceBrowser       ContextSource = "browser"
	SourceTerminal      ContextSource = "terminal"
	SourceDocument      ContextSource = "document"
	SourceAccessibility ContextSource = "accessibility"
	SourceNotification  ContextSource = "notification"
	SourceDiscord       ContextSource = "discord"
	SourceTeams         ContextSource = "teams"
	SourceMessages      ContextSource = "messages"
	SourceOCR           ContextSource = "ocr"
	SourceUnknown       ContextSource = "unknown"
)

var validSources = map[ContextSource]bool{
	SourceSlack:         true,
	SourceMail:          true,
	SourceCalendar:      true,
	SourceNotes:         true,
	SourceClipboard:     true,
	SourceBrowser:       true,
	SourceTerminal:      true,
	SourceDocument:      true,
	SourceAccessibility: true,
	SourceNotification:  true,
	SourceDiscord:       true,
	SourceTeams:         true,
	SourceMessages:      true,
	SourceOCR:           true,
	SourceUnknown:       true,
}

// appSources maps lowercased application names to their source.
var appSources = map[string]ContextSource{
	"slack":                SourceSlack,
	"mail":                 SourceMail,
	"outlook":              SourceMail,
	"microsoft outlook":    SourceMail,
	"spark":                SourceMail,
	"airmail":              SourceMail,
	"mimestream":           SourceMail,
	"thunderbird":          SourceMail,
	"calendar":             SourceCalendar,
	"fantastical":          SourceCalendar,
	"busycal":              SourceCalendar,
	"notes":                SourceNotes,
	"obsidian":             SourceNotes,
	"notion":               SourceNotes,
	"bear":                 SourceNotes,
	"safari":               SourceBrowser,
	"google chrome":        SourceBrowser,
	"chrome":               SourceBrowser,
	"firefox":              SourceBrowser,
	"arc":                  SourceBrowser,
	"brave browser":        SourceBrowser,
	"microsoft edge":       SourceBrowser,
	"terminal":             SourceTerminal,
	"iterm2":               SourceTerminal,
	"warp":                 SourceTerminal,
	"ghostty":              SourceTerminal,
	"preview":              SourceDocument,
	"pages":                SourceDocument,
	"microsoft word":       SourceDocument,
	"adobe acrobat reader": SourceDocument,
	"discord":              SourceDiscord,
	"microsoft teams":      SourceTeams,
	"teams":                SourceTeams,
	"messages":             SourceMessages,
	"notification center":  SourceNotification,
	"notificationcenter":   SourceNotification,
}

// producerSources are sources a producer may assert directly, regardless of
// which application was in front when the text was captured.
var producerSources = map[ContextSource]bool{
	SourceClipboard:    true,
	SourceNotification: true,
	SourceOCR:          true,
}

// SourceFromApp resolves an application name to a source.
// Unknown applications map to SourceAccessibility.
func SourceFromApp(appName string) ContextSource {
	if src, ok := appSources[strings.ToLower(strings.TrimSpace(appName))]; ok {
		return src
	}
	return SourceAccessibility
}

// ResolveSource picks the source for an event. A producer tag naming a
// producer-specific source wins; anything else falls back to the app lookup.
func ResolveSource(appName, sourceTag string) ContextSource {
	tag := ContextSource(strings.ToLower(strings.TrimSpace(sourceTag)))
	if producerSources[tag] {
		return tag
	}
	return SourceFromApp(appName)
}

// IsMailClient reports whether the application is a known mail client.
func IsMailClient(appName string) bool {
	return SourceFromApp(appName) == SourceMail
}

// IsValidSource reports whether s is one of the known sources.
func IsValidSource(s ContextSource) bool {
	return validSources[s]
}
