package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"

	"github.com/amp-labs/effort-economics/envutil"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

// Alignment of banner text.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

const (
	bannerPadding = 2
	halfDivisor   = 2

	// DefaultTerminalWidth is used when the terminal size is unknown.
	DefaultTerminalWidth = 80
)

func bannersSuppressed(ctx context.Context) bool {
	return envutil.Bool(ctx, "EFFORT_NO_BANNER", envutil.Default(false)).ValueOrElse(false)
}

func terminalWidth() int {
	_, w, err := TerminalDimensions()
	if err != nil || w == 0 {
		return DefaultTerminalWidth
	}

	return int(w) //nolint:gosec // bounded by screen size
}

// DividerAutoWidth returns a divider as wide as the terminal.
func DividerAutoWidth() string {
	return Divider(terminalWidth())
}

// BannerAutoWidth returns a banner as wide as the terminal, or the bare text
// when EFFORT_NO_BANNER is set.
func BannerAutoWidth(ctx context.Context, s string, align Alignment) string {
	if bannersSuppressed(ctx) {
		return s + "\n"
	}

	return Banner(s, terminalWidth(), align)
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width < bannerPadding {
		return "\n"
	}

	return dividerLeft + strings.Repeat(dividerMiddle, width-bannerPadding) + dividerRight + "\n"
}

// Banner boxes each line of s. Lines longer than the box are cut with an
// ellipsis.
func Banner(s string, width int, align Alignment) string {
	if width <= bannerPadding || s == "" {
		return ""
	}

	inner := width - bannerPadding
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, boxTopLeft+strings.Repeat(boxTop, inner)+boxTopRight)

	for _, l := range lines {
		parts = append(parts, boxSide+pad(l, inner, align)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

func truncateGraphic(s string, n int) (string, int) {
	var sb strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			if count == n {
				break
			}

			count++
		}

		sb.WriteRune(r)
	}

	return sb.String(), count
}

func pad(text string, width int, align Alignment) string {
	length := countGraphic(text)

	if length > width {
		text, length = truncateGraphic(text, width-1)
		text += ellipsis
		length++
	}

	diff := width - length

	switch align {
	case AlignRight:
		return strings.Repeat(" ", diff) + text
	case AlignCenter:
		left := diff / halfDivisor

		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left)
	default:
		return text + strings.Repeat(" ", diff)
	}
}

// TerminalDimensions returns (rows, cols, err) as reported by stty.
func TerminalDimensions() (uint, uint, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return 0, 0, err
	}

	defer func() { _ = tty.Close() }()

	cmd := exec.Command("stty", "size")
	cmd.Stdin = tty

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	return parseSize(string(out))
}

func parseSize(input string) (uint, uint, error) {
	fields := strings.Fields(input)
	if len(fields) != bannerPadding {
		return 0, 0, fmt.Errorf("%w: %q", strconv.ErrSyntax, input)
	}

	rows, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	cols, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	return uint(rows), uint(cols), nil
}
