package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var onCmd = &cobra.Command{
	Use:     "on <when>...",
	GroupID: "list",
	Short:   "Show the dish planned for a day",
	Long: `Show which dish is planned for a day, counting the first dish as
today's dinner and each following dish as the next day.

Example:
  dinner on tomorrow
  dinner on friday
  dinner on next monday`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{})
		defer a.close()

		now := time.Now()
		date, err := parseDay(strings.Join(args, " "), now)
		if err != nil {
			a.fail("%v", err)
		}

		index := dish.IndexForDate(now, date)
		label := date.Format("Monday 2 January")
		list := a.model.Dishes()
		switch {
		case index < 0:
			a.fail("%s is in the past", label)
		case index >= len(list):
			fmt.Printf("%s: %s\n", label, ui.Subtle("nothing planned yet"))
		default:
			d := list[index]
			fmt.Printf("%s: %s %s\n", label, d.Emoji, d.Name)
		}
	},
}

var dayParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDay understands "today", "tomorrow", weekday names and the other
// English expressions of the when parser.
func parseDay(text string, now time.Time) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(text), "today") {
		return now, nil
	}
	r, err := dayParser.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("cannot tell which day %q is", text)
	}
	return r.Time, nil
}

func init() {
	rootCmd.AddCommand(onCmd)
}
