package archive

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"whatsapp-chat-viewer/internal/domain"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
}

func buildZip(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive(buildZip(t, entry{"a.txt", "x"})))
	assert.True(t, IsArchive(buildZip(t)))
	assert.False(t, IsArchive([]byte("15/03/23, 10:30 - Alice: Hello there")))
	assert.False(t, IsArchive(nil))
}

func TestZipExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("текст чата и медиа в порядке архива", func(t *testing.T) {
		data := buildZip(t,
			entry{"media/", ""},
			entry{"IMG-20230315-WA0002.jpg", "second"},
			entry{"WhatsApp Chat with Bob.txt", "15/03/23, 10:31 - Bob: <Media omitted>\n"},
			entry{"media/VID-20230316-WA0001.MP4", "video"},
			entry{"contact.vcf", "ignored"},
			entry{"notes.txt", "ignored"},
		)

		extractor := NewZipExtractor(WithWorkers(2))
		archive, err := extractor.Extract(ctx, data)
		require.NoError(t, err)

		assert.Equal(t, "15/03/23, 10:31 - Bob: <Media omitted>\n", archive.ChatText)
		require.Len(t, archive.Media, 2)

		assert.Equal(t, "IMG-20230315-WA0002.jpg", archive.Media[0].Filename)
		assert.Equal(t, domain.MediaImage, archive.Media[0].Category)
		content, ok := archive.Media[0].Content.Bytes()
		require.True(t, ok)
		assert.Equal(t, []byte("second"), content)

		assert.Equal(t, "VID-20230316-WA0001.MP4", archive.Media[1].Filename, "путь внутри архива отбрасывается")
		assert.Equal(t, domain.MediaVideo, archive.Media[1].Category)
		assert.Equal(t, 5, archive.Media[1].Size)
	})

	t.Run("имя чата без учета регистра", func(t *testing.T) {
		data := buildZip(t, entry{"export/_CHAT.TXT", "hello"})

		archive, err := NewZipExtractor().Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "hello", archive.ChatText)
		assert.Empty(t, archive.Media)
	})

	t.Run("берется первый подходящий текст", func(t *testing.T) {
		data := buildZip(t,
			entry{"chat-1.txt", "first"},
			entry{"chat-2.txt", "second"},
		)

		archive, err := NewZipExtractor().Extract(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "first", archive.ChatText)
	})

	t.Run("нет текста чата", func(t *testing.T) {
		data := buildZip(t, entry{"IMG-20230315-WA0001.jpg", "img"}, entry{"readme.txt", "x"})

		archive, err := NewZipExtractor().Extract(ctx, data)
		assert.Nil(t, archive)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNoTranscriptFound))

		var archiveErr *domain.ArchiveError
		require.True(t, errors.As(err, &archiveErr))
		assert.Equal(t, "locate", archiveErr.Op)
	})

	t.Run("поврежденный архив", func(t *testing.T) {
		archive, err := NewZipExtractor().Extract(ctx, []byte("PK\x03\x04 definitely not a zip"))
		assert.Nil(t, archive)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrArchiveOpen))
		assert.False(t, errors.Is(err, domain.ErrNoTranscriptFound))
	})

	t.Run("отмененный контекст прерывает чтение медиа", func(t *testing.T) {
		data := buildZip(t,
			entry{"chat.txt", "x"},
			entry{"a.jpg", "a"},
			entry{"b.jpg", "b"},
		)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		archive, err := NewZipExtractor().Extract(cancelled, data)
		assert.Nil(t, archive)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
