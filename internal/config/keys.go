package config

import (
	"time"

	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath    = "database.path"
	KeyAppID           = "app.id"
	KeyExtraSources    = "sources.extra"
	KeyVoiceEnabled    = "voice.enabled"
	KeyVoiceLanguage   = "voice.language"
	KeyVoiceSpeed      = "voice.speed"
	KeyScheduleEnabled = "schedule.enabled"
	KeyMuteStart       = "schedule.mute_start"
	KeyMuteEnd         = "schedule.mute_end"
	KeyAnnounceTimeout = "announce.timeout"
	KeyAnnounceEngine  = "announce.engine"
	KeyAudioControl    = "audio.control"
	KeyAudioWakeLock   = "audio.wake_lock"
	KeyRulesFile       = "classifier.rules_file"
	KeyServerAddr      = "server.addr"
	KeyServerTLSDir    = "server.tls_dir"
	KeyServerTLSHosts  = "server.tls_hosts"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
)

// DefaultAppID identifies notifications posted by this application itself.
const DefaultAppID = "com.upialert"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "$HOME/.local/share/upialert/upialert.db")
	v.SetDefault(KeyAppID, DefaultAppID)
	v.SetDefault(KeyExtraSources, []string{})
	v.SetDefault(KeyVoiceEnabled, true)
	v.SetDefault(KeyVoiceLanguage, "English")
	v.SetDefault(KeyVoiceSpeed, 1.0)
	v.SetDefault(KeyScheduleEnabled, false)
	v.SetDefault(KeyMuteStart, "22:00")
	v.SetDefault(KeyMuteEnd, "06:00")
	v.SetDefault(KeyAnnounceTimeout, 30*time.Second)
	v.SetDefault(KeyAnnounceEngine, "espeak-ng")
	v.SetDefault(KeyAudioControl, "Master")
	v.SetDefault(KeyAudioWakeLock, true)
	v.SetDefault(KeyRulesFile, "")
	v.SetDefault(KeyServerAddr, ":8765")
	v.SetDefault(KeyServerTLSDir, "")
	v.SetDefault(KeyServerTLSHosts, []string{})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}
