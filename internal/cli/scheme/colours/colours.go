// Package colours is the console palette used by readaloud's plain output.
package colours

import "github.com/fatih/color"

var (
	Title    *color.Color
	Page     *color.Color
	Announce *color.Color
	Prompt   *color.Color
	Error    *color.Color
	Success  *color.Color
	Info     *color.Color
	Warning  *color.Color
)

func init() {
	UseHighContrast(false)
}

// UseHighContrast swaps the palette between the normal and high contrast
// variants. It is not safe to call while another goroutine is printing.
func UseHighContrast(on bool) {
	if on {
		Title = color.New(color.FgHiWhite, color.Bold, color.Underline)
		Page = color.New(color.FgHiWhite, color.Bold)
		Announce = color.New(color.FgHiYellow, color.Bold)
		Prompt = color.New(color.FgHiWhite, color.Bold)
		Error = color.New(color.FgHiRed, color.Bold)
		Success = color.New(color.FgHiGreen, color.Bold)
		Info = color.New(color.FgHiCyan, color.Bold)
		Warning = color.New(color.FgHiYellow, color.Bold)
		return
	}

	Title = color.New(color.FgCyan, color.Bold)
	Page = color.New(color.Reset)
	Announce = color.New(color.FgMagenta, color.Bold)
	Prompt = color.New(color.FgGreen, color.Bold)
	Error = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
}
