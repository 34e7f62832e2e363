package reader

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdSearch
	CmdNextPage
	CmdPreviousPage
	CmdZoomIn
	CmdZoomOut
	CmdBookmark
	CmdReadAloud
	CmdStopReading
	CmdPause
	CmdResume
	CmdRepeatPage
	CmdLoopReading
	CmdFaster
	CmdSlower
	CmdToggleSidebar
	CmdToggleTheme
	CmdHighContrast
	CmdLargeText
	CmdFocusMode
	CmdOfflineMode

	// Reachable from the keyboard only.
	CmdTogglePlay
	CmdToggleAutoRead
	CmdListen
	CmdStopListening
)

var commandNames = map[CommandKind]string{
	CmdNone:          "none",
	CmdSearch:        "search",
	CmdNextPage:      "next page",
	CmdPreviousPage:  "previous page",
	CmdZoomIn:        "zoom in",
	CmdZoomOut:       "zoom out",
	CmdBookmark:      "bookmark",
	CmdReadAloud:     "read aloud",
	CmdStopReading:   "stop reading",
	CmdPause:         "pause",
	CmdResume:        "resume",
	CmdRepeatPage:    "repeat page",
	CmdLoopReading:   "loop reading",
	CmdFaster:        "faster reading",
	CmdSlower:        "slower reading",
	CmdToggleSidebar: "toggle sidebar",
	CmdToggleTheme:   "toggle theme",
	CmdHighContrast:  "high contrast",
	CmdLargeText:     "large text",
	CmdFocusMode:     "focus mode",
	CmdOfflineMode:   "offline mode",

	CmdTogglePlay:     "play/pause",
	CmdToggleAutoRead: "auto read",
	CmdListen:         "listen",
	CmdStopListening:  "stop listening",
}

func (k CommandKind) String() string {
	return commandNames[k]
}

// Command is one entry of the interpreter's ordered table. Run receives the
// text following the matched phrase and returns the announcement to make.
type Command struct {
	Kind    CommandKind
	Phrases []string
	Run     func(rest string) string
}

// MsgNotRecognized is announced for input no command matches.
const MsgNotRecognized = "Command not recognized"

// Interpreter maps one recognised utterance to exactly one command. Commands
// are tried in table order and the first whose phrase occurs in the input
// wins.
type Interpreter struct {
	commands []Command
	fold     cases.Caser
	announce func(string)
}

func NewInterpreter(commands []Command, announce func(string)) *Interpreter {
	return &Interpreter{
		commands: commands,
		fold:     cases.Fold(),
		announce: announce,
	}
}

// Match returns the winning command and the text after its phrase.
func (i *Interpreter) Match(input string) (Command, string, bool) {
	folded := i.fold.String(strings.TrimSpace(input))
	for _, cmd := range i.commands {
		for _, phrase := range cmd.Phrases {
			p := i.fold.String(phrase)
			idx := strings.Index(folded, p)
			if idx < 0 {
				continue
			}
			rest := strings.TrimSpace(folded[idx+len(p):])
			return cmd, rest, true
		}
	}
	return Command{}, "", false
}

// Dispatch runs the command matching input and makes exactly one
// announcement.
func (i *Interpreter) Dispatch(input string) CommandKind {
	cmd, rest, ok := i.Match(input)
	if !ok {
		logrus.WithField("input", input).Debug("Voice command not recognized")
		i.announce(MsgNotRecognized)
		return CmdNone
	}

	logrus.WithFields(logrus.Fields{
		"command": cmd.Kind.String(),
		"input":   input,
	}).Debug("Dispatching voice command")

	msg := cmd.Run(rest)
	if msg == "" {
		msg = "Done"
	}
	i.announce(msg)
	return cmd.Kind
}
