package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"

	"readaloud/internal/audio"
)

// GoogleTTSEngine synthesises through Google Cloud Text-to-Speech, caches the
// MP3 chunks on disk and plays them through the shared beep speaker.
type GoogleTTSEngine struct {
	client       *texttospeech.Client
	ctx          context.Context
	cacheRootDir string

	mu     sync.Mutex
	gen    uint64
	ctrl   *beep.Ctrl
	cancel context.CancelFunc
}

func newGoogleTTSEngine(cacheDir string) (*GoogleTTSEngine, error) {
	ctx := context.Background()
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	if err := audio.InitSpeaker(); err != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", err)
	}

	return &GoogleTTSEngine{
		client:       client,
		ctx:          ctx,
		cacheRootDir: cacheDir,
	}, nil
}

func (g *GoogleTTSEngine) Speak(u Utterance, cb Callbacks) error {
	g.mu.Lock()
	g.cancelLocked()
	gen := g.gen
	ctx, cancel := context.WithCancel(g.ctx)
	g.cancel = cancel
	g.mu.Unlock()

	go g.run(ctx, gen, u, cb)
	return nil
}

func (g *GoogleTTSEngine) run(ctx context.Context, gen uint64, u Utterance, cb Callbacks) {
	paths, err := g.synthesize(ctx, u)
	if err != nil {
		if g.current(gen) {
			cb.fail(err)
		}
		return
	}

	streamers := make([]beep.Streamer, 0, len(paths))
	closers := make([]beep.StreamSeekCloser, 0, len(paths))
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	for _, p := range paths {
		s, format, err := audio.Open(p)
		if err != nil {
			closeAll()
			if g.current(gen) {
				cb.fail(err)
			}
			return
		}
		closers = append(closers, s)
		streamers = append(streamers, audio.Resample(s, format))
	}

	ctrl := &beep.Ctrl{Streamer: withVolume(beep.Seq(streamers...), u.Volume)}

	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		closeAll()
		return
	}
	g.ctrl = ctrl
	g.mu.Unlock()

	cb.start()
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// Runs with the speaker locked; hand off before touching anything else.
		go g.finished(gen, closeAll, cb)
	})))
}

func (g *GoogleTTSEngine) finished(gen uint64, closeAll func(), cb Callbacks) {
	closeAll()

	g.mu.Lock()
	current := g.gen == gen
	if current {
		g.ctrl = nil
		g.cancel = nil
	}
	g.mu.Unlock()

	if current {
		cb.end()
	}
}

func (g *GoogleTTSEngine) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen == gen
}

// synthesize returns the cached MP3 chunk paths for u, generating missing ones.
func (g *GoogleTTSEngine) synthesize(ctx context.Context, u Utterance) ([]string, error) {
	cacheDir := filepath.Join(g.cacheRootDir, "google")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	// Create a unique identifier for this specific text + voice combination
	key := fmt.Sprintf("%s|%s|%s|%.2f|%.2f", u.Text, u.Voice, u.Language, u.Rate, u.Pitch)
	contentHash := md5Sum(key)[:12]

	chunks := splitIntoChunks(u.Text, 4800) // a little under 5000 to be safe
	paths := make([]string, len(chunks))

	for i, chunk := range chunks {
		paths[i] = filepath.Join(cacheDir, fmt.Sprintf("%s_%d.mp3", contentHash, i))
		if _, err := os.Stat(paths[i]); err == nil {
			continue
		}

		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: voiceLanguage(u),
				Name:         u.Voice,
			},
			AudioConfig: audioConfig(u),
		}
		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", i, err)
		}

		if err := os.WriteFile(paths[i], resp.AudioContent, 0644); err != nil {
			return nil, fmt.Errorf("failed to write MP3 chunk %d to %s: %w", i, paths[i], err)
		}

		logrus.WithFields(logrus.Fields{
			"chunk": i + 1,
			"of":    len(chunks),
			"path":  paths[i],
		}).Debug("Cached synthesized audio chunk")
	}

	return paths, nil
}

func audioConfig(u Utterance) *texttospeechpb.AudioConfig {
	cfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}

	// Chirp voices don't support speakingRate/pitch, skip them
	if !strings.Contains(strings.ToLower(u.Voice), "chirp") {
		cfg.SpeakingRate = u.Rate
		// Pitch is in semitones, [-20, 20]
		cfg.Pitch = math.Max(-20, math.Min(20, (u.Pitch-1)*20))
	}
	return cfg
}

// withVolume scales s to a linear volume in [0, 1].
func withVolume(s beep.Streamer, volume float64) beep.Streamer {
	if volume >= 1 {
		return s
	}
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 0.001)),
		Silent:   volume <= 0,
	}
}

func (g *GoogleTTSEngine) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
	return nil
}

func (g *GoogleTTSEngine) cancelLocked() {
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Streamer = nil
		g.ctrl.Paused = false
		speaker.Unlock()
		g.ctrl = nil
	}
}

func (g *GoogleTTSEngine) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = true
		speaker.Unlock()
	}
	return nil
}

func (g *GoogleTTSEngine) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ctrl != nil {
		speaker.Lock()
		g.ctrl.Paused = false
		speaker.Unlock()
	}
	return nil
}

func (g *GoogleTTSEngine) Voices() ([]Voice, error) {
	resp, err := g.client.ListVoices(g.ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		lang := ""
		if len(v.LanguageCodes) > 0 {
			lang = v.LanguageCodes[0]
		}
		voices = append(voices, Voice{
			Name:         v.Name,
			LanguageCode: lang,
			Gender:       strings.ToLower(v.SsmlGender.String()),
			Natural:      isNaturalVoice(v.Name),
		})
	}
	return voices, nil
}

// voiceLanguage returns the language a named voice belongs to, e.g. en-GB
// for en-GB-Neural2-B, so the request never mixes a voice with another locale.
func voiceLanguage(u Utterance) string {
	parts := strings.SplitN(u.Voice, "-", 3)
	if len(parts) == 3 {
		return parts[0] + "-" + parts[1]
	}
	return u.Language
}

func isNaturalVoice(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"neural", "wavenet", "chirp", "studio"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// GetCacheStats returns cache statistics for the current engine
func (g *GoogleTTSEngine) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalFiles int64
	var totalSize int64

	// Walk through the entire cache directory tree
	err := filepath.Walk(g.cacheRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Continue walking despite errors
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		return stats, err
	}

	stats["cache_directory"] = g.cacheRootDir
	stats["cached_files"] = totalFiles
	stats["total_size_mb"] = float64(totalSize) / (1024 * 1024)

	return stats, nil
}

// ClearCache removes all cached files
func (g *GoogleTTSEngine) ClearCache() error {
	return os.RemoveAll(g.cacheRootDir)
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text) // safe for UTF-8
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
