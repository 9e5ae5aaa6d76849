package core

import "testing"

func TestSourceFromApp(t *testing.T) {
	tests := []struct {
		app  string
		want ContextSource
	}{
		{"Slack", SourceSlack},
		{"Microsoft Outlook", SourceMail},
		{"  Mail ", SourceMail},
		{"Google Chrome", SourceBrowser},
		{"iTerm2", SourceTerminal},
		{"Discord", SourceDiscord},
		{"Finder", SourceAccessibility},
		{"", SourceAccessibility},
	}

	for _, tt := range tests {
		t.Run(tt.app, func(t *testing.T) {
			if got := SourceFromApp(tt.app); got != tt.want {
				t.Errorf("SourceFromApp(%q) = %s, want %s", tt.app, got, tt.want)
			}
		})
	}
}

func TestResolveSource(t *testing.T) {
	tests := []struct {
		name string
		app  string
		tag  string
		want ContextSource
	}{
		{"clipboard tag wins", "Slack", "clipboard", SourceClipboard},
		{"ocr tag wins", "Safari", "OCR", SourceOCR},
		{"notification tag wins", "Mail", "notification", SourceNotification},
		{"accessibility tag defers to app", "Slack", "accessibility", SourceSlack},
		{"unknown tag defers to app", "Notes", "whatever", SourceNotes},
		{"empty tag", "Finder", "", SourceAccessibility},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSource(tt.app, tt.tag); got != tt.want {
				t.Errorf("ResolveSource(%q, %q) = %s, want %s", tt.app, tt.tag, got, tt.want)
			}
		})
	}
}

func TestIsMailClient(t *testing.T) {
	if !IsMailClient("Spark") {
		t.Error("Spark should be a mail client")
	}
	if IsMailClient("Slack") {
		t.Error("Slack is not a mail client")
	}
}
