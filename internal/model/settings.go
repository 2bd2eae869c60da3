package model

import "strings"

// MinutesPerDay bounds every minute-of-day value.
const MinutesPerDay = 24 * 60

// MuteSchedule is a daily quiet window. StartMinute > EndMinute denotes a
// window that wraps past midnight.
type MuteSchedule struct {
	Enabled     bool
	StartMinute int
	EndMinute   int
}

// Language selects the announcement template and voice.
type Language string

// Supported announcement languages.
const (
	LanguageEnglish   Language = "English"
	LanguageHindi     Language = "Hindi"
	LanguageMalayalam Language = "Malayalam"
	LanguageBengali   Language = "Bengali"
	LanguageGujarati  Language = "Gujarati"
	LanguageKannada   Language = "Kannada"
	LanguageMarathi   Language = "Marathi"
	LanguageTamil     Language = "Tamil"
	LanguageTelugu    Language = "Telugu"
	LanguageUrdu      Language = "Urdu"
)

// Languages lists the supported languages in display order.
var Languages = []Language{
	LanguageEnglish,
	LanguageHindi,
	LanguageMalayalam,
	LanguageBengali,
	LanguageGujarati,
	LanguageKannada,
	LanguageMarathi,
	LanguageTamil,
	LanguageTelugu,
	LanguageUrdu,
}

// ParseLanguage matches a language name case-insensitively, falling back to English.
func ParseLanguage(name string) Language {
	for _, lang := range Languages {
		if strings.EqualFold(string(lang), strings.TrimSpace(name)) {
			return lang
		}
	}
	return LanguageEnglish
}

// Settings is the user configuration consulted by the pipeline and the queue.
type Settings struct {
	Language     Language
	Mute         MuteSchedule
	SpeechRate   float64
	VoiceEnabled bool
}

// DefaultSettings mirrors the defaults of a fresh installation.
func DefaultSettings() Settings {
	return Settings{
		VoiceEnabled: true,
		Language:     LanguageEnglish,
		SpeechRate:   1.0,
		Mute: MuteSchedule{
			Enabled:     false,
			StartMinute: 22 * 60,
			EndMinute:   6 * 60,
		},
	}
}
