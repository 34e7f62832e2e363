package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view over the viper keys used by readaloud.
type Config struct {
	TTS       TTSConfig
	ASR       ASRConfig
	Reader    ReaderConfig
	Store     StoreConfig
	Documents DocumentsConfig
	Log       LogConfig
}

// TTSConfig selects the engine. The tts.speed, tts.pitch, tts.volume,
// tts.voice and tts.language keys seed the speech settings instead, see
// SpeechDefaults.
type TTSConfig struct {
	Type      string
	CachePath string
}

type ASRConfig struct {
	Type    string // typed, exec or none
	Command string
	Args    []string
}

type ReaderConfig struct {
	SettleDelay  time.Duration
	LinesPerPage int
	AnnounceHold time.Duration
}

type StoreConfig struct {
	Backend  string // badger, sqlite or memory
	Path     string
	NotesDir string
}

type DocumentsConfig struct {
	CacheDir string
	MaxAge   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// SetDefaults registers every default readaloud knows about.
func SetDefaults() {
	dataDir := DataDir()

	viper.SetDefault("tts.type", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.pitch", 1.0)
	viper.SetDefault("tts.volume", 0.8)
	viper.SetDefault("tts.language", "en-US")
	viper.SetDefault("tts.cache_path", filepath.Join(dataDir, "tts"))

	viper.SetDefault("asr.type", "typed")
	viper.SetDefault("asr.command", "")
	viper.SetDefault("asr.args", []string{})

	viper.SetDefault("reader.settle_delay", 800*time.Millisecond)
	viper.SetDefault("reader.lines_per_page", 40)
	viper.SetDefault("announce.hold", 1500*time.Millisecond)

	viper.SetDefault("store.backend", "badger")
	viper.SetDefault("store.path", filepath.Join(dataDir, "db"))
	viper.SetDefault("store.notes_dir", filepath.Join(dataDir, "notes"))

	viper.SetDefault("documents.cache_dir", filepath.Join(dataDir, "documents"))
	viper.SetDefault("documents.max_age", 24*time.Hour)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.file", "")

	viper.SetDefault("accessibility.screenReaderEnabled", false)
	viper.SetDefault("accessibility.highContrast", false)
	viper.SetDefault("accessibility.largeText", false)
	viper.SetDefault("accessibility.focusMode", false)
	viper.SetDefault("accessibility.reducedMotion", false)
	viper.SetDefault("accessibility.voiceCommandsEnabled", true)
	viper.SetDefault("accessibility.autoRead", false)
	viper.SetDefault("accessibility.offlineMode", false)
	viper.SetDefault("accessibility.loopReading", false)
}

// Load reads the current viper state into a Config.
func Load() Config {
	return Config{
		TTS: TTSConfig{
			Type:      viper.GetString("tts.type"),
			CachePath: viper.GetString("tts.cache_path"),
		},
		ASR: ASRConfig{
			Type:    viper.GetString("asr.type"),
			Command: viper.GetString("asr.command"),
			Args:    viper.GetStringSlice("asr.args"),
		},
		Reader: ReaderConfig{
			SettleDelay:  viper.GetDuration("reader.settle_delay"),
			LinesPerPage: viper.GetInt("reader.lines_per_page"),
			AnnounceHold: viper.GetDuration("announce.hold"),
		},
		Store: StoreConfig{
			Backend:  viper.GetString("store.backend"),
			Path:     viper.GetString("store.path"),
			NotesDir: viper.GetString("store.notes_dir"),
		},
		Documents: DocumentsConfig{
			CacheDir: viper.GetString("documents.cache_dir"),
			MaxAge:   viper.GetDuration("documents.max_age"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
			File:   viper.GetString("log.file"),
		},
	}
}

// AccessibilityDefaults returns the configured default for each named toggle.
// Viper folds key case, so lookups go through GetBool rather than the raw map.
func AccessibilityDefaults(keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if viper.IsSet("accessibility." + k) {
			out[k] = viper.GetBool("accessibility." + k)
		}
	}
	return out
}

var speechKeys = map[string]string{
	"readingSpeed": "tts.speed",
	"voicePitch":   "tts.pitch",
	"voiceVolume":  "tts.volume",
	"voiceId":      "tts.voice",
	"language":     "tts.language",
}

// SpeechDefaults maps the tts.* keys that are set onto the speech settings
// they seed. A value stored by the user still wins over these.
func SpeechDefaults() map[string]any {
	out := make(map[string]any, len(speechKeys))
	for setting, key := range speechKeys {
		if !viper.IsSet(key) {
			continue
		}
		switch setting {
		case "voiceId", "language":
			out[setting] = viper.GetString(key)
		default:
			out[setting] = viper.GetFloat64(key)
		}
	}
	return out
}

// DataDir returns the directory readaloud keeps its state in.
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "readaloud")
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".readaloud")
	}

	return ".readaloud"
}
