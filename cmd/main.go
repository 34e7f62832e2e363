package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"readaloud/internal/app"
	"readaloud/internal/cli/scheme/colours"
	"readaloud/internal/config"
	"readaloud/internal/logging"
)

func main() {
	app := app.New()
	var logCloser io.Closer

	// Setup signal handling for graceful shutdown; a second signal kills the process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		signal.Stop(sigChan)
		app.Cancel()
		fmt.Fprintln(os.Stderr, "\n"+colours.Warning.Sprint("Stopping readaloud"))
	}()

	rootCmd := &cobra.Command{
		Use:   "readaloud",
		Short: "📖 Read documents aloud in sync with the page",
		Long: `
┌─────────────────────────────────────────┐
│  📖 readaloud                           │
│  Hands-free reading for the terminal    │
└─────────────────────────────────────────┘

readaloud speaks a document page by page, turns pages as it goes and
listens for voice commands such as "next page" or "pause reading".
Bookmarks, audio notes and accessibility settings are kept between runs.
		`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			closer, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
			if err != nil {
				return err
			}
			logCloser = closer
			return app.Open(cfg)
		},
	}

	readCmd := &cobra.Command{
		Use:   "read <path|url>",
		Short: "📖 Read a document aloud",
		Long:  "Open a plain text document from a file or URL and read it aloud",
		Args:  cobra.ExactArgs(1),
		RunE:  app.Read,
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List available voices",
		Long:  "List the voices offered by the configured speech engine",
		RunE:  app.ListVoices,
	}

	// Add flags
	readCmd.Flags().Bool("plain", false, "Use the line based console instead of the full screen view")
	readCmd.Flags().IntP("page", "p", 1, "Page to start on")
	readCmd.Flags().StringP("voice", "v", "", "Voice to read with. See voices for options")
	voicesCmd.Flags().StringP("language", "l", "", "Only show voices for this language, e.g. en or en-GB")

	rootCmd.PersistentFlags().String("tts", "", "Speech engine: auto, google, espeak or mock")
	rootCmd.PersistentFlags().String("store", "", "Store backend: badger, sqlite or memory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level")
	viper.BindPFlag("tts.type", rootCmd.PersistentFlags().Lookup("tts"))
	viper.BindPFlag("store.backend", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(readCmd, voicesCmd)
	app.AddBookmarkCommands(rootCmd)
	app.AddNoteCommands(rootCmd)
	app.AddSettingsCommands(rootCmd)
	app.AddCacheCommands(rootCmd)

	err := rootCmd.Execute()
	if cerr := app.Close(); cerr != nil {
		logrus.WithError(cerr).Warn("Failed to close readaloud store")
	}
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		colours.Error.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// Configuration management with Viper
func init() {
	config.SetDefaults()

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.readaloud")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("READALOUD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logrus.WithError(err).Warn("Failed to read config file")
		}
	}
}
