// Package archive распаковывает архив экспорта чата: текст переписки и медиафайлы.
package archive

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"
	"strings"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Сигнатуры начала zip-архива: обычный и пустой архив.
var zipMagic = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"),
}

// IsArchive сообщает, похожи ли данные на zip-архив.
func IsArchive(data []byte) bool {
	for _, m := range zipMagic {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

// Option — функциональная опция для настройки ZipExtractor.
type Option func(*ZipExtractor)

// WithWorkers задает число одновременно читаемых медиафайлов.
func WithWorkers(n int) Option {
	return func(e *ZipExtractor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger устанавливает логгер для распаковщика.
func WithLogger(l *slog.Logger) Option {
	return func(e *ZipExtractor) {
		if l != nil {
			e.log = l
		}
	}
}

// ZipExtractor реализует интерфейс ArchiveExtractor для zip-архивов.
type ZipExtractor struct {
	workers int
	log     *slog.Logger
}

// NewZipExtractor создает новый экземпляр ZipExtractor.
func NewZipExtractor(opts ...Option) ports.ArchiveExtractor {
	e := &ZipExtractor{
		workers: 4,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// isTranscriptEntry узнает текст чата по имени: содержит "chat" и оканчивается на .txt.
func isTranscriptEntry(name string) bool {
	base := strings.ToLower(path.Base(name))
	return strings.HasSuffix(base, ".txt") && strings.Contains(base, "chat")
}

// Extract открывает архив, находит текст чата и читает все медиафайлы.
// Медиафайлы читаются параллельно, но метод возвращается только после
// завершения всех чтений, поэтому результат никогда не бывает частичным.
func (e *ZipExtractor) Extract(ctx context.Context, data []byte) (*domain.Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &domain.ArchiveError{Op: "open", Kind: domain.ErrArchiveOpen, Err: xerrors.Errorf("zip reader: %w", err)}
	}

	var transcript *zip.File
	var mediaEntries []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch {
		case transcript == nil && isTranscriptEntry(f.Name):
			transcript = f
		case domain.IsMediaFile(f.Name):
			mediaEntries = append(mediaEntries, f)
		}
	}

	if transcript == nil {
		return nil, &domain.ArchiveError{Op: "locate", Kind: domain.ErrNoTranscriptFound}
	}

	chatText, err := readEntry(transcript)
	if err != nil {
		return nil, &domain.ArchiveError{Op: "read", Kind: domain.ErrArchiveOpen, Err: xerrors.Errorf("%s: %w", transcript.Name, err)}
	}

	media, err := e.readMedia(ctx, mediaEntries)
	if err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "Archive extracted",
		"transcript", transcript.Name,
		"transcript_bytes", len(chatText),
		"media_files", len(media),
	)

	return &domain.Archive{
		ChatText: string(chatText),
		Media:    media,
	}, nil
}

// readMedia читает медиафайлы группой горутин и собирает результат в порядке записей архива.
func (e *ZipExtractor) readMedia(ctx context.Context, entries []*zip.File) ([]domain.MediaAttachment, error) {
	results := make([]domain.MediaAttachment, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, f := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := readEntry(f)
			if err != nil {
				return &domain.ArchiveError{Op: "read", Kind: domain.ErrArchiveOpen, Err: xerrors.Errorf("%s: %w", f.Name, err)}
			}
			results[i] = domain.NewMediaAttachment(path.Base(f.Name), content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
