package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/schedule"
	"github.com/spf13/viper"
)

// Speech rate bounds accepted from configuration.
const (
	MinSpeechRate = 0.5
	MaxSpeechRate = 2.0
)

// Settings reads the user configuration from viper on every call, so edits
// to the config file or environment apply to the next announcement.
type Settings struct {
	v    *viper.Viper
	last model.Settings
	mu   sync.Mutex
}

// NewSettings wraps v. A nil v uses the global viper instance.
func NewSettings(v *viper.Viper) *Settings {
	if v == nil {
		v = viper.GetViper()
	}
	return &Settings{v: v, last: model.DefaultSettings()}
}

// Settings returns the current configuration. A key with an invalid value
// keeps the last valid value it had (the default if it never had one), and
// the returned error wraps common.ErrInvalidConfig naming every such key.
// The returned settings are usable even when err is non-nil.
func (s *Settings) Settings(ctx context.Context) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return s.last, err
	}

	next := s.last
	var errs []error

	next.VoiceEnabled = s.v.GetBool(KeyVoiceEnabled)
	next.Language = model.ParseLanguage(s.v.GetString(KeyVoiceLanguage))
	next.Mute.Enabled = s.v.GetBool(KeyScheduleEnabled)

	rate := s.v.GetFloat64(KeyVoiceSpeed)
	if rate < MinSpeechRate || rate > MaxSpeechRate {
		errs = append(errs, fmt.Errorf("%s=%v outside [%v, %v]", KeyVoiceSpeed, rate, MinSpeechRate, MaxSpeechRate))
	} else {
		next.SpeechRate = rate
	}

	if start, err := schedule.ParseClock(s.v.GetString(KeyMuteStart)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyMuteStart, err))
	} else {
		next.Mute.StartMinute = start
	}
	if end, err := schedule.ParseClock(s.v.GetString(KeyMuteEnd)); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyMuteEnd, err))
	} else {
		next.Mute.EndMinute = end
	}

	s.last = next
	if len(errs) > 0 {
		return next, fmt.Errorf("%w: %w", common.ErrInvalidConfig, errors.Join(errs...))
	}
	return next, nil
}

// Sources returns the allow-list of payment applications, including any
// extra identifiers from configuration.
func (s *Settings) Sources() model.SourceSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NewSourceSet(s.v.GetStringSlice(KeyExtraSources)...)
}

// AppID is the package identity whose own notifications are ignored.
func (s *Settings) AppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.v.GetString(KeyAppID); id != "" {
		return id
	}
	return DefaultAppID
}
