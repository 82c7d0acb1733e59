package logger

import (
	"bytes"
	"testing"

	"github.com/logrusorgru/aurora/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Critical("crit")
	c.Error("bad %d", 1)
	c.Warning("careful")
	c.Info("note")
	c.Debug("trace")
	c.Success("ok")
	c.Default("plain")

	assert.Equal(t, "🆘 crit\n𝖷 bad 1\n⚠️  careful\n💬 note\n🛠  trace\n√ ok\nplain\n", buf.String())
}

func TestConsoleIndent(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Indent()
	c.Default("one")
	c.Indent()
	c.Default("two")
	c.Dedent()
	c.Default("one again")
	c.Dedent()
	c.Dedent()
	c.Default("zero")
	c.Indent()
	c.ResetIndent()
	c.Default("reset")

	assert.Equal(t, "  one\n    two\n  one again\nzero\nreset\n", buf.String())
}

func TestConsoleAccumulateFlush(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Accumulate()
	c.Info("first")
	c.Indent()
	c.Error("second")

	assert.Empty(t, buf.String(), "accumulated lines are not written")
	assert.Equal(t, "💬 first\n  𝖷 second\n", c.Flush())

	c.Default("direct")
	assert.Equal(t, "  direct\n", buf.String())
	assert.Empty(t, c.Flush())
}

func TestConsoleColors(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Styled(aurora.CyanFg|aurora.BoldFm|aurora.ItalicFm, "Group")
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "Group")
}

func TestParseLevel(t *testing.T) {
	for n := uint32(0); n <= 6; n++ {
		lvl, err := ParseLevel(n)
		require.NoError(t, err)
		assert.Equal(t, Level(n), lvl)
	}
	_, err := ParseLevel(7)
	assert.Error(t, err)
}
