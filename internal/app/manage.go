package app

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"readaloud/internal/annotation"
	"readaloud/internal/cli/scheme/colours"
	"readaloud/internal/settings"
	"readaloud/internal/speech/tts"
)

var errSpeechUnavailable = errors.New("no speech engine is available")

// ListVoices prints the voices of the configured engine.
func availableEngines() string {
	var names []string
	for _, e := range tts.GetAvailableEngines() {
		names = append(names, e.String())
	}
	return strings.Join(names, ", ")
}

func (a *App) ListVoices(cmd *cobra.Command, args []string) error {
	language, _ := cmd.Flags().GetString("language")

	engine := a.engine()
	if engine == nil {
		return fmt.Errorf("%w (engines on this system: %s)", errSpeechUnavailable, availableEngines())
	}
	voices, err := engine.Voices()
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	sort.Slice(voices, func(i, j int) bool {
		if voices[i].LanguageCode != voices[j].LanguageCode {
			return voices[i].LanguageCode < voices[j].LanguageCode
		}
		return voices[i].Name < voices[j].Name
	})

	current := a.settings.String(settings.VoiceID)
	count := 0
	for _, v := range voices {
		if language != "" && !strings.HasPrefix(strings.ToLower(v.LanguageCode), strings.ToLower(language)) {
			continue
		}
		count++
		marker := " "
		if v.Name == current {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s ", marker)
		colours.Title.Fprintf(a.out, "%-28s", v.Name)
		fmt.Fprintf(a.out, " %-8s %-8s", v.LanguageCode, v.Gender)
		if v.Natural {
			colours.Success.Fprint(a.out, " natural")
		}
		fmt.Fprintln(a.out)
	}

	if count == 0 {
		colours.Warning.Fprintln(a.out, "No voices found")
	}
	return nil
}

// ListBookmarks prints the bookmarked pages of a document.
func (a *App) ListBookmarks(cmd *cobra.Command, args []string) error {
	doc, err := a.loadDocument(args[0])
	if err != nil {
		return err
	}
	bookmarks, err := a.annotations.BookmarksFor(doc.ID)
	if err != nil {
		return err
	}

	colours.Title.Fprintf(a.out, "Bookmarks in %s\n", doc.Title)
	if len(bookmarks) == 0 {
		colours.Warning.Fprintln(a.out, "No bookmarks yet")
		return nil
	}
	for _, b := range bookmarks {
		fmt.Fprintf(a.out, "  page %-5d %s\n", b.Page, b.Timestamp.Format(time.DateTime))
	}
	return nil
}

// ToggleBookmark adds or removes the bookmark on one page of a document.
func (a *App) ToggleBookmark(cmd *cobra.Command, args []string) error {
	doc, err := a.loadDocument(args[0])
	if err != nil {
		return err
	}
	page, err := parsePage(args[1], doc.TotalPages())
	if err != nil {
		return err
	}

	present, err := a.annotations.ToggleBookmark(doc.ID, page)
	if err != nil {
		return err
	}
	if present {
		colours.Success.Fprintf(a.out, "Bookmark added on page %d\n", page)
	} else {
		colours.Success.Fprintf(a.out, "Bookmark removed from page %d\n", page)
	}
	return nil
}

// ListNotes prints the audio notes of a document in creation order.
func (a *App) ListNotes(cmd *cobra.Command, args []string) error {
	doc, err := a.loadDocument(args[0])
	if err != nil {
		return err
	}
	notes, err := a.annotations.NotesFor(doc.ID)
	if err != nil {
		return err
	}

	colours.Title.Fprintf(a.out, "Audio notes in %s\n", doc.Title)
	if len(notes) == 0 {
		colours.Warning.Fprintln(a.out, "No audio notes yet")
		return nil
	}
	for _, n := range notes {
		fmt.Fprintf(a.out, "  #%-4d page %-5d %6.1fs  %s\n",
			n.ID, n.Page, float64(n.DurationMs)/1000, n.Timestamp.Format(time.DateTime))
	}
	return nil
}

// AddNote imports a recorded clip and attaches it to a page.
func (a *App) AddNote(cmd *cobra.Command, args []string) error {
	doc, err := a.loadDocument(args[0])
	if err != nil {
		return err
	}
	page, err := parsePage(args[1], doc.TotalPages())
	if err != nil {
		return err
	}

	ref, durationMs, err := annotation.ImportAudio(a.cfg.Store.NotesDir, args[2])
	if err != nil {
		return err
	}
	note, err := a.annotations.AddAudioNote(doc.ID, page, ref, durationMs)
	if err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "Added note #%d on page %d (%.1fs)\n", note.ID, page, float64(durationMs)/1000)
	return nil
}

// RemoveNote deletes a note by id. Unknown ids are not an error.
func (a *App) RemoveNote(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q", args[0])
	}
	if err := a.annotations.RemoveAudioNote(id); err != nil {
		return err
	}
	colours.Success.Fprintf(a.out, "Removed note #%d\n", id)
	return nil
}

// PlayNote plays a note through the speaker and waits for it to finish.
func (a *App) PlayNote(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note id %q", args[0])
	}
	note, ok, err := a.annotations.GetAudioNote(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("note #%d not found", id)
	}

	colours.Info.Fprintf(a.out, "Playing note #%d (page %d)\n", note.ID, note.Page)
	return annotation.PlayAudio(a.cfg.Store.NotesDir, note)
}

// ListSettings prints every accessibility setting.
func (a *App) ListSettings(cmd *cobra.Command, args []string) error {
	colours.Title.Fprintln(a.out, "Accessibility settings")
	for _, key := range settings.Keys() {
		v, err := a.settings.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "  %-22s %v\n", key, v)
	}
	return nil
}

func (a *App) GetSetting(cmd *cobra.Command, args []string) error {
	v, err := a.settings.Get(settings.Key(args[0]))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, v)
	return nil
}

func (a *App) SetSetting(cmd *cobra.Command, args []string) error {
	key := settings.Key(args[0])
	if err := a.settings.SetString(key, args[1]); err != nil {
		return err
	}
	v, _ := a.settings.Get(key)
	colours.Success.Fprintf(a.out, "%s = %v\n", key, v)
	return nil
}

func (a *App) ResetSettings(cmd *cobra.Command, args []string) error {
	if err := a.settings.Reset(); err != nil {
		return err
	}
	colours.Success.Fprintln(a.out, "Settings restored to defaults")
	return nil
}

// ShowCacheStatus displays the document cache and, when the engine keeps
// one, the synthesized speech cache.
func (a *App) ShowCacheStatus(cmd *cobra.Command, args []string) error {
	colours.Title.Fprintln(a.out, "Document cache")
	info, err := a.loader.GetCacheInfo()
	if err != nil {
		return fmt.Errorf("failed to get cache info: %w", err)
	}
	colours.Info.Fprintf(a.out, "  Location: %s\n", info["cache_directory"])
	colours.Info.Fprintf(a.out, "  Documents: %d\n", info["cached_documents"])
	colours.Info.Fprintf(a.out, "  Size: %d bytes\n", info["size"])
	if newest, ok := info["last_modified"].(time.Time); ok && !newest.IsZero() {
		colours.Info.Fprintf(a.out, "  Last download: %s\n", newest.Format(time.DateTime))
	}
	colours.Info.Fprintf(a.out, "  Max age: %.1f hours\n", info["max_age_hours"])
	if a.settings.Bool(settings.OfflineMode) {
		colours.Warning.Fprintln(a.out, "  Offline mode is on, only cached documents can be opened")
	}

	cache, ok := a.engine().(tts.CacheableEngine)
	if !ok {
		return nil
	}
	stats, err := cache.GetCacheStats()
	if err != nil {
		return fmt.Errorf("failed to get speech cache stats: %w", err)
	}
	colours.Title.Fprintln(a.out, "Speech cache")
	colours.Info.Fprintf(a.out, "  Location: %s\n", stats["cache_directory"])
	colours.Info.Fprintf(a.out, "  Files: %d\n", stats["cached_files"])
	colours.Info.Fprintf(a.out, "  Size: %.2f MB\n", stats["total_size_mb"])
	return nil
}

// ClearCache removes cached documents and synthesized speech.
func (a *App) ClearCache(cmd *cobra.Command, args []string) error {
	if err := a.loader.ClearCache(); err != nil {
		return err
	}
	colours.Success.Fprintln(a.out, "Document cache cleared")

	if cache, ok := a.engine().(tts.CacheableEngine); ok {
		if err := cache.ClearCache(); err != nil {
			return fmt.Errorf("failed to clear speech cache: %w", err)
		}
		colours.Success.Fprintln(a.out, "Speech cache cleared")
	}
	return nil
}

func parsePage(arg string, total int) (int, error) {
	page, err := strconv.Atoi(arg)
	if err != nil || page < 1 || page > total {
		return 0, fmt.Errorf("page must be between 1 and %d", total)
	}
	return page, nil
}
