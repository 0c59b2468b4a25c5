package services

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"whatsapp-chat-viewer/internal/adapters/parser"
	"whatsapp-chat-viewer/internal/domain"

	"github.com/stretchr/testify/require"
)

const sampleTranscript = "15/03/23, 10:29 - Messages to this chat are now secured\n" +
	"15/03/23, 10:30 - Alice: Hello there\n" +
	"15/03/23, 10:31 - Bob: <Media omitted>\n" +
	"16/03/23, 09:00 - Alice: Morning, Bob\n" +
	"continued line without header\n" +
	"17/03/23, 18:45 - Carol: Check this out\n" +
	"17/03/23, 18:46 - bob: see you"

func newDecoder() *TranscriptDecoder {
	return NewTranscriptDecoder(parser.NewLineParser(""))
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseFilterDate(s)
	require.NoError(t, err)
	return d
}

func media(names ...string) []domain.MediaAttachment {
	out := make([]domain.MediaAttachment, 0, len(names))
	for _, n := range names {
		out = append(out, domain.NewMediaAttachment(n, []byte("data:"+n)))
	}
	return out
}

// longTranscript строит n сообщений по одному в день начиная с 1 января 2023,
// каждое третье является плейсхолдером вложения.
func longTranscript(n int) string {
	var b strings.Builder
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		sender := []string{"Alice", "Bob", "Carol"}[i%3]
		text := fmt.Sprintf("message %d", i)
		if i%3 == 2 {
			text = "<Media omitted>"
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s, 12:00 - %s: %s", d.Format("02/01/06"), sender, text)
	}
	return b.String()
}

// longMedia возвращает файлы для longTranscript: по одному на каждую дату с плейсхолдером.
func longMedia(n int) []domain.MediaAttachment {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	names := make([]string, 0, n/3)
	for i := 2; i < n; i += 3 {
		d := start.AddDate(0, 0, i)
		names = append(names, fmt.Sprintf("IMG-%s-WA%04d.jpg", d.Format("20060102"), i))
	}
	return media(names...)
}
