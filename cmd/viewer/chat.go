package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"whatsapp-chat-viewer/internal/adapters/archive"
	"whatsapp-chat-viewer/internal/adapters/exporter"
	"whatsapp-chat-viewer/internal/adapters/parser"
	"whatsapp-chat-viewer/internal/adapters/source"
	"whatsapp-chat-viewer/internal/cache"
	"whatsapp-chat-viewer/internal/core/services"
	"whatsapp-chat-viewer/internal/domain"
	applog "whatsapp-chat-viewer/internal/log"
	"whatsapp-chat-viewer/internal/pkg/config"
	"whatsapp-chat-viewer/internal/ports"
	"whatsapp-chat-viewer/internal/server/usecase"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type globalOptions struct {
	configPath string
	noColor    bool
	verbose    bool
}

// Флаги фильтрации, общие для messages и export.
type filterFlags struct {
	search      string
	from        string
	to          string
	participant string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "подстрока текста (без учета регистра)")
	cmd.Flags().StringVar(&f.from, "from", "", "начальная дата YYYY-MM-DD включительно")
	cmd.Flags().StringVar(&f.to, "to", "", "конечная дата YYYY-MM-DD включительно")
	cmd.Flags().StringVarP(&f.participant, "participant", "p", "", "точное имя отправителя")
}

func (f *filterFlags) criteria() (domain.FilterCriteria, error) {
	from, err := domain.ParseFilterDate(f.from)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	to, err := domain.ParseFilterDate(f.to)
	if err != nil {
		return domain.FilterCriteria{}, err
	}
	return domain.FilterCriteria{SearchText: f.search, DateFrom: from, DateTo: to, Participant: f.participant}, nil
}

// chat хранит загруженный экспорт вместе с сессией просмотра.
type chat struct {
	cfg      *config.Config
	log      *slog.Logger
	session  *services.Session
	pipeline *services.Pipeline
}

// openChat читает файл, разбирает начало переписки и открывает сессию просмотра.
func openChat(cmd *cobra.Command, opts *globalOptions, path string) (*chat, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := applog.NewLogger(level, "text", cmd.ErrOrStderr())

	if hash, err := cache.CalculateFileHash(path); err == nil {
		logger.Debug("Открыт файл экспорта", "path", path, "sha256", hash)
	}

	extractor := archive.NewZipExtractor(
		archive.WithWorkers(cfg.Processing.MediaWorkers),
		archive.WithLogger(logger),
	)
	loader := usecase.NewLoadChatUseCase(cfg, extractor, parser.NewLineParser(cfg.Viewer.MediaOmittedMarker), logger)

	p, err := loader.LoadSource(cmd.Context(), source.NewFileSource(path, cfg.MaxUploadBytes()))
	if err != nil {
		return nil, err
	}

	session := services.NewSession(services.SessionConfig{
		InitialWindow: cfg.Viewer.InitialWindow,
		WindowStep:    cfg.Viewer.WindowStep,
		ExtendLines:   cfg.Processing.ExtendDecodeLines,
	}, services.WithSessionLogger(logger))
	if _, err := session.Replace(p); err != nil {
		return nil, err
	}

	return &chat{cfg: cfg, log: logger, session: session, pipeline: p}, nil
}

func (c *chat) Close() {
	c.session.Close()
}

// consoleExporter выводит в stdout команды; цвет только для терминала.
func consoleExporter(cmd *cobra.Command, opts *globalOptions) ports.Exporter {
	out := cmd.OutOrStdout()
	return exporter.NewConsoleExporter(
		exporter.WithWriter(out),
		exporter.WithColor(!opts.noColor && isTerminal(out)),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
