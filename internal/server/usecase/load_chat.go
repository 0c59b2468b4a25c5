package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"whatsapp-chat-viewer/internal/adapters/archive"
	"whatsapp-chat-viewer/internal/cache"
	"whatsapp-chat-viewer/internal/core/services"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/pkg/config"
	"whatsapp-chat-viewer/internal/ports"
)

// utf8BOM встречается в начале текстовых экспортов с некоторых устройств.
const utf8BOM = "\ufeff"

// LoadChatUseCase инкапсулирует бизнес-логику загрузки экспорта чата.
type LoadChatUseCase struct {
	cfg       *config.Config
	extractor ports.ArchiveExtractor
	decoder   *services.TranscriptDecoder
	log       *slog.Logger
}

// NewLoadChatUseCase создает новый экземпляр LoadChatUseCase.
func NewLoadChatUseCase(
	cfg *config.Config,
	extractor ports.ArchiveExtractor,
	parser ports.LineParser,
	logger *slog.Logger,
) *LoadChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadChatUseCase{
		cfg:       cfg,
		extractor: extractor,
		decoder:   services.NewTranscriptDecoder(parser),
		log:       logger,
	}
}

// LoadChat превращает загруженные байты в готовый к просмотру Pipeline.
// Zip-архив распаковывается целиком, любые другие данные считаются текстом экспорта.
// При ошибке Pipeline не создается, а уже прочитанные медиафайлы освобождаются.
func (uc *LoadChatUseCase) LoadChat(ctx context.Context, data []byte) (*services.Pipeline, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyInput
	}

	hash := cache.CalculateHash(data)
	log := uc.log.With(slog.String("upload_sha256", hash))

	var bundle *domain.Archive
	if archive.IsArchive(data) {
		log.Info("Распаковка архива", "size", len(data))
		extracted, err := uc.extractor.Extract(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("не удалось распаковать архив: %w", err)
		}
		bundle = extracted
	} else {
		log.Info("Загрузка текстового экспорта", "size", len(data))
		bundle = &domain.Archive{ChatText: string(data)}
	}

	library := domain.NewMediaLibrary(bundle.Media)
	if err := ctx.Err(); err != nil {
		library.Release()
		return nil, err
	}

	text := strings.TrimPrefix(bundle.ChatText, utf8BOM)
	p := services.NewPipeline(uc.decoder, text, library, uc.cfg.Processing.InitialDecodeLines)

	decoded, total := p.Progress()
	idx := p.Index()
	log.Info("Чат загружен",
		"generation", p.Generation(),
		"messages", idx.TotalCount,
		"participants", len(idx.Participants),
		"media_files", library.Len(),
		"decoded_lines", decoded,
		"total_lines", total,
	)
	return p, nil
}

// LoadSource читает данные из источника и загружает их через LoadChat.
func (uc *LoadChatUseCase) LoadSource(ctx context.Context, ds ports.DataSource) (*services.Pipeline, error) {
	data, err := ds.Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить данные: %w", err)
	}
	return uc.LoadChat(ctx, data)
}
