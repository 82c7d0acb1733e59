package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora/v4"
)

// Level is a report line level. The numeric values match the level
// argument of the guest log.log host function.
type Level uint32

const (
	LevelCritical Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelSuccess
	LevelDefault
)

// margin is the number of spaces added per indentation step
const margin = 2

// ParseLevel validates a guest log level
func ParseLevel(n uint32) (Level, error) {
	if n > uint32(LevelDefault) {
		return 0, fmt.Errorf("log level %d is not supported", n)
	}
	return Level(n), nil
}

// Console renders the test report. It carries the indentation and the
// accumulation mode that scope one test's output; it is not safe for
// concurrent use.
type Console struct {
	w      io.Writer
	colors bool
	indent int
	accum  bool
	lines  []string
}

// NewConsole creates a console writing to w
func NewConsole(w io.Writer, colors bool) *Console {
	return &Console{w: w, colors: colors}
}

// Indent increases the indentation of subsequent lines
func (c *Console) Indent() { c.indent += margin }

// Dedent decreases the indentation of subsequent lines
func (c *Console) Dedent() {
	c.indent -= margin
	if c.indent < 0 {
		c.indent = 0
	}
}

// ResetIndent drops all indentation
func (c *Console) ResetIndent() { c.indent = 0 }

// Accumulate buffers subsequent lines instead of writing them
func (c *Console) Accumulate() { c.accum = true }

// Flush leaves accumulation mode and returns the buffered lines,
// each terminated by a newline
func (c *Console) Flush() string {
	var b strings.Builder
	for _, l := range c.lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	c.accum = false
	c.lines = nil
	return b.String()
}

// Log writes one formatted line at level
func (c *Console) Log(level Level, format string, args ...interface{}) {
	c.emit(c.Format(level, fmt.Sprintf(format, args...)))
}

func (c *Console) Critical(format string, args ...interface{}) { c.Log(LevelCritical, format, args...) }
func (c *Console) Error(format string, args ...interface{})    { c.Log(LevelError, format, args...) }
func (c *Console) Warning(format string, args ...interface{})  { c.Log(LevelWarning, format, args...) }
func (c *Console) Info(format string, args ...interface{})     { c.Log(LevelInfo, format, args...) }
func (c *Console) Debug(format string, args ...interface{})    { c.Log(LevelDebug, format, args...) }
func (c *Console) Success(format string, args ...interface{})  { c.Log(LevelSuccess, format, args...) }
func (c *Console) Default(format string, args ...interface{})  { c.Log(LevelDefault, format, args...) }

// Styled writes one default-level line with an explicit color and format
func (c *Console) Styled(color aurora.Color, format string, args ...interface{}) {
	c.emit(c.pad(c.Paint(fmt.Sprintf(format, args...), color)))
}

// Raw writes s as-is, without indentation, bypassing accumulation
func (c *Console) Raw(s string) {
	fmt.Fprint(c.w, s)
}

// Format renders msg as a line at level with the current indentation
func (c *Console) Format(level Level, msg string) string {
	var s string
	switch level {
	case LevelCritical:
		s = c.Paint("🆘 "+msg, aurora.RedFg|aurora.BoldFm)
	case LevelError:
		s = c.Paint("𝖷 "+msg, aurora.RedFg|aurora.BoldFm)
	case LevelWarning:
		s = c.Paint("⚠️  "+msg, aurora.YellowFg)
	case LevelInfo:
		s = c.Paint("💬 "+msg, aurora.ItalicFm)
	case LevelDebug:
		s = c.Paint("🛠  "+msg, aurora.CyanFg|aurora.ItalicFm)
	case LevelSuccess:
		s = c.Paint("√ "+msg, aurora.GreenFg|aurora.BoldFm)
	default:
		s = msg
	}
	return c.pad(s)
}

func (c *Console) pad(s string) string {
	return strings.Repeat(" ", c.indent) + s
}

// Paint colors s unless colors are disabled
func (c *Console) Paint(s string, color aurora.Color) string {
	if !c.colors {
		return s
	}
	return aurora.Colorize(s, color).String()
}

func (c *Console) emit(line string) {
	if c.accum {
		c.lines = append(c.lines, line)
		return
	}
	fmt.Fprintln(c.w, line)
}
