package app

import "github.com/spf13/cobra"

// AddBookmarkCommands registers the bookmarks command group on rootCmd.
func (a *App) AddBookmarkCommands(rootCmd *cobra.Command) {
	bookmarksCmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "🔖 Manage bookmarks",
		Long:  "List or toggle the bookmarked pages of a document",
	}

	listCmd := &cobra.Command{
		Use:   "list <path|url>",
		Short: "List bookmarked pages",
		Args:  cobra.ExactArgs(1),
		RunE:  a.ListBookmarks,
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <path|url> <page>",
		Short: "Add or remove the bookmark on a page",
		Args:  cobra.ExactArgs(2),
		RunE:  a.ToggleBookmark,
	}

	bookmarksCmd.AddCommand(listCmd, toggleCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

// AddNoteCommands registers the notes command group on rootCmd.
func (a *App) AddNoteCommands(rootCmd *cobra.Command) {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "🎙️ Manage audio notes",
		Long:  "Attach recorded mp3 or wav clips to pages and play them back",
	}

	listCmd := &cobra.Command{
		Use:   "list <path|url>",
		Short: "List the audio notes of a document",
		Args:  cobra.ExactArgs(1),
		RunE:  a.ListNotes,
	}

	addCmd := &cobra.Command{
		Use:   "add <path|url> <page> <audio-file>",
		Short: "Attach a recorded clip to a page",
		Args:  cobra.ExactArgs(3),
		RunE:  a.AddNote,
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an audio note",
		Args:  cobra.ExactArgs(1),
		RunE:  a.RemoveNote,
	}

	playCmd := &cobra.Command{
		Use:   "play <id>",
		Short: "Play an audio note",
		Args:  cobra.ExactArgs(1),
		RunE:  a.PlayNote,
	}

	notesCmd.AddCommand(listCmd, addCmd, removeCmd, playCmd)
	rootCmd.AddCommand(notesCmd)
}

// AddSettingsCommands registers the settings command group on rootCmd.
func (a *App) AddSettingsCommands(rootCmd *cobra.Command) {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Configure accessibility and voice settings",
		Long:  "Show and change the persisted accessibility settings",
		RunE:  a.ListSettings,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show every setting",
		RunE:  a.ListSettings,
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Show one setting",
		Args:  cobra.ExactArgs(1),
		RunE:  a.GetSetting,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE:  a.SetSetting,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE:  a.ResetSettings,
	}

	settingsCmd.AddCommand(listCmd, getCmd, setCmd, resetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// AddCacheCommands registers the cache command group on rootCmd.
func (a *App) AddCacheCommands(rootCmd *cobra.Command) {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "📦 Manage downloaded documents and speech",
		Long:  "Inspect or clear the document and synthesized speech caches",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "📊 Show cache status",
		RunE:  a.ShowCacheStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🧹 Clear the caches",
		RunE:  a.ClearCache,
	}

	cacheCmd.AddCommand(statusCmd, clearCmd)
	rootCmd.AddCommand(cacheCmd)
}
