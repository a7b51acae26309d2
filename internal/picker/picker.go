package picker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/lazypower/recount/internal/discovery"
)

// ErrAborted is returned when the user quits the menu without choosing.
var ErrAborted = errors.New("selection aborted")

// Option is one selectable conversation with its display preview.
type Option struct {
	Conversation discovery.Conversation
	Preview      string
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Width returns the terminal width of f, the COLUMNS variable, or 80.
func Width(f *os.File) int {
	if f != nil {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

// Choose renders a numbered menu of conversations to out, reads a selection
// from in, and returns the chosen option's index. "q" or EOF aborts.
func Choose(opts []Option, in io.Reader, out io.Writer, width int) (int, error) {
	if len(opts) == 0 {
		return 0, errors.New("no conversations to choose from")
	}

	for _, line := range Render(opts, width) {
		fmt.Fprintln(out, line)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "\nSelect conversation [1-%d], q to quit: ", len(opts))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("read selection: %w", err)
			}
			return 0, ErrAborted
		}

		idx, err := ParseChoice(scanner.Text(), len(opts))
		if err != nil {
			if errors.Is(err, ErrAborted) {
				return 0, err
			}
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		return idx, nil
	}
}

// ParseChoice interprets a menu answer: a 1-based number within range, or
// "q"/"quit" to abort.
func ParseChoice(answer string, n int) (int, error) {
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "q" || answer == "quit" {
		return 0, ErrAborted
	}

	num, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", answer)
	}
	if num < 1 || num > n {
		return 0, fmt.Errorf("out of range: %d", num)
	}
	return num - 1, nil
}

// Render formats the menu rows, one per option, trimmed to the terminal
// width.
func Render(opts []Option, width int) []string {
	lines := make([]string, 0, len(opts))
	for i, o := range opts {
		c := o.Conversation
		line := fmt.Sprintf("%3d. %-24s %-14s %8s  %s",
			i+1,
			trimRunes(c.Project, 24),
			humanize.Time(c.Modified),
			humanize.Bytes(uint64(c.Size)),
			o.Preview,
		)
		lines = append(lines, trimRunes(line, width))
	}
	return lines
}

func trimRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
