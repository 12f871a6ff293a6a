// Package cli provides colored terminal output and a progress bar for the
// wallet and token commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// out is the sink for the status helpers, swappable in tests.
var out io.Writer = os.Stdout

// Colorize returns text wrapped in the given color when stdout is a terminal.
func Colorize(text string, color string) string {
	if !isTerminal() {
		return text
	}
	return color + text + ColorReset
}

// Success prints a green check line.
func Success(message string) {
	printMarked("✓", ColorGreen, message)
}

// Error prints a red cross line.
func Error(message string) {
	printMarked("✗", ColorRed, message)
}

// Warning prints a yellow warning line.
func Warning(message string) {
	printMarked("⚠", ColorYellow, message)
}

// Info prints a blue info line.
func Info(message string) {
	printMarked("ℹ", ColorBlue, message)
}

func printMarked(mark, color, message string) {
	if isTerminal() {
		fmt.Fprintf(out, "%s%s%s %s\n", color, mark, ColorReset, message)
		return
	}
	fmt.Fprintf(out, "%s %s\n", mark, message)
}

// ProgressBar tracks completion of a fixed number of steps on one terminal
// line.
type ProgressBar struct {
	total    int
	current  int
	width    int
	label    string
	mu       sync.Mutex
	writer   io.Writer
	started  time.Time
	colorize bool
}

// NewProgressBar creates a progress bar for total steps.
func NewProgressBar(total int, label string) *ProgressBar {
	return &ProgressBar{
		total:    total,
		width:    40,
		label:    label,
		writer:   os.Stdout,
		started:  time.Now(),
		colorize: isTerminal(),
	}
}

// SetWriter sets the output writer.
func (pb *ProgressBar) SetWriter(w io.Writer) *ProgressBar {
	pb.writer = w
	return pb
}

// Increment advances the bar by one step.
func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current++
	if pb.current > pb.total {
		pb.current = pb.total
	}
	pb.render()
}

// Current returns the completed step count.
func (pb *ProgressBar) Current() int {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.current
}

// Set moves the bar to the given step.
func (pb *ProgressBar) Set(current int) {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current = current
	if pb.current > pb.total {
		pb.current = pb.total
	}
	pb.render()
}

// Finish completes the bar and moves to the next line.
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pb.current = pb.total
	pb.render()
	fmt.Fprintln(pb.writer)
}

func (pb *ProgressBar) render() {
	if pb.total <= 0 {
		return
	}
	percent := float64(pb.current) / float64(pb.total)
	filled := int(float64(pb.width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.width-filled)
	if pb.colorize {
		switch {
		case percent < 1.0:
			bar = ColorCyan + bar + ColorReset
		default:
			bar = ColorGreen + bar + ColorReset
		}
	}

	line := fmt.Sprintf("\r%s [%s] %d/%d", pb.label, bar, pb.current, pb.total)
	if pb.current > 0 {
		line += fmt.Sprintf(" | %s", FormatDuration(time.Since(pb.started)))
	}
	fmt.Fprint(pb.writer, line)
}

// FormatDuration renders a duration for status lines.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
