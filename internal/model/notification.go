package model

import "strings"

// NotificationEvent is a raw notification posted by another application.
// Absent fields are empty strings.
type NotificationEvent struct {
	SourceID string `json:"source_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Evidence returns the audit text kept alongside a recorded transaction.
func (e NotificationEvent) Evidence() string {
	return e.Title + " | " + e.Body
}

// Source identifies a supported payment application by its package name.
type Source string

// Supported payment applications.
const (
	SourceGooglePay Source = "com.google.android.apps.nbu.paisa.user"
	SourcePhonePe   Source = "com.phonepe.app"
	SourcePaytm     Source = "net.one97.paytm"
	SourceBHIM      Source = "in.org.npci.upiapp"
)

// KnownSources maps every built-in source to a display name.
var KnownSources = map[Source]string{
	SourceGooglePay: "Google Pay",
	SourcePhonePe:   "PhonePe",
	SourcePaytm:     "Paytm",
	SourceBHIM:      "BHIM",
}

// SourceSet is the allow-list of applications whose notifications are read.
type SourceSet map[Source]struct{}

// NewSourceSet returns the built-in sources plus any extra identifiers.
func NewSourceSet(extra ...string) SourceSet {
	set := make(SourceSet, len(KnownSources)+len(extra))
	for src := range KnownSources {
		set[src] = struct{}{}
	}
	for _, id := range extra {
		id = strings.TrimSpace(id)
		if id != "" {
			set[Source(id)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether id is an allowed source.
func (s SourceSet) Contains(id string) bool {
	_, ok := s[Source(id)]
	return ok
}

// DisplayName returns a friendly name for a source identifier.
func DisplayName(id string) string {
	if name, ok := KnownSources[Source(id)]; ok {
		return name
	}
	return id
}
