package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineParser(t *testing.T) {
	t.Run("NewLineParser создает корректный экземпляр", func(t *testing.T) {
		parser := NewLineParser("")
		if parser == nil {
			t.Error("Ожидался экземпляр LineParser, получен nil")
		}
		assert.Equal(t, DefaultMediaOmittedMarker, parser.(*LineParser).mediaMarker)
	})

	t.Run("Разбор обычного сообщения", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("15/03/23, 10:30 - Alice: Hello there", 0)
		require.True(t, ok)

		assert.Equal(t, "15/03/23", msg.Date)
		assert.Equal(t, "10:30", msg.Time)
		assert.Equal(t, "Alice", msg.Sender)
		assert.Equal(t, "Hello there", msg.Text)
		assert.False(t, msg.IsMediaPlaceholder)
		assert.Nil(t, msg.Media)
		assert.Equal(t, 0, msg.SourceLineIndex)
		assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), msg.NormalizedTimestamp)
	})

	t.Run("Двоеточия внутри сообщения сохраняются", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("15/03/23, 10:30:15 - Bob: meet at 12:00: ok?", 7)
		require.True(t, ok)

		assert.Equal(t, "10:30:15", msg.Time)
		assert.Equal(t, "Bob", msg.Sender)
		assert.Equal(t, "meet at 12:00: ok?", msg.Text)
		assert.Equal(t, 7, msg.SourceLineIndex)
	})

	t.Run("Время в 12-часовом формате", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("01/12/22, 9:05 pm - +91 98765 43210: hi", 2)
		require.True(t, ok)
		assert.Equal(t, "9:05 pm", msg.Time)
		assert.Equal(t, "+91 98765 43210", msg.Sender)
	})

	t.Run("Неразрывные пробелы в разделителях", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("01/12/22,\u00a09:05\u202fpm\u00a0-\u202fAlice:\u00a0hi", 3)
		require.True(t, ok)
		assert.Equal(t, "9:05\u202fpm", msg.Time)
		assert.Equal(t, "Alice", msg.Sender)
		assert.Equal(t, "hi", msg.Text)
	})

	t.Run("Маркер вложения", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("15/03/23, 10:31 - Bob: <Media omitted>", 1)
		require.True(t, ok)
		assert.True(t, msg.IsMediaPlaceholder)
	})

	t.Run("Нестрогий признак media", func(t *testing.T) {
		parser := NewLineParser("")

		msg, ok := parser.Parse("15/03/23, 10:31 - Bob: check the MEDIA folder", 1)
		require.True(t, ok)
		assert.True(t, msg.IsMediaPlaceholder)
	})

	t.Run("Собственный маркер вложения", func(t *testing.T) {
		parser := NewLineParser("<Medien ausgeschlossen>")

		msg, ok := parser.Parse("15/03/23, 10:31 - Bob:  <Medien ausgeschlossen> ", 1)
		require.True(t, ok)
		assert.True(t, msg.IsMediaPlaceholder)
	})
}

func TestLineParserRejects(t *testing.T) {
	parser := NewLineParser("")

	lines := []string{
		"Messages to this chat are now secured",
		"15/03/23, 10:29 - Messages and calls are end-to-end encrypted.",
		"and this is the second line of a message",
		"2023-03-15, 10:30 - Alice: wrong date format",
		"15/03/23 10:30 - Alice: no comma",
		"15/03/23, 10:30 - Alice:",
		"31/02/23, 10:30 - Alice: no such day",
		"15/13/23, 10:30 - Alice: no such month",
		"",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, ok := parser.Parse(line, 0)
			assert.False(t, ok, "строка должна быть отброшена: %q", line)
		})
	}
}
