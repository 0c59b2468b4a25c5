package log

import (
	"context"
	"log/slog"
	"regexp"
)

// PhoneMaskerHandler - обертка для slog.Handler, которая маскирует номера телефонов в логах.
// В экспортах WhatsApp отправитель без контакта записан номером, и такие имена
// не должны попадать в логи.
type PhoneMaskerHandler struct {
	handler slog.Handler
}

// NewPhoneMaskerHandler создает новый обработчик с маскировкой номеров
func NewPhoneMaskerHandler(handler slog.Handler) *PhoneMaskerHandler {
	return &PhoneMaskerHandler{
		handler: handler,
	}
}

// номер в международном формате: +код страны и не меньше восьми цифр,
// допускаются пробелы и дефисы между группами
var phoneRegex = regexp.MustCompile(`\+(\d{1,3})[\s-]?(?:\d[\s-]?){6,13}\d`)

// maskPhones заменяет найденные номера на маску, оставляя код страны
func maskPhones(text string) string {
	return phoneRegex.ReplaceAllString(text, "+$1 ***masked-phone***")
}

// Enabled реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Новая запись не разделяет атрибуты с исходной, которую slog может переиспользовать.
	r := slog.NewRecord(record.Time, record.Level, maskPhones(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = maskAttr(attr)
	}
	return &PhoneMaskerHandler{
		handler: h.handler.WithAttrs(masked),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *PhoneMaskerHandler) WithGroup(name string) slog.Handler {
	return &PhoneMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskPhones(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskPhones(err.Error()))
		}
		return value
	case slog.KindLogValuer:
		return maskAttributeValue(value.Resolve())
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, attr := range group {
			masked[i] = maskAttr(attr)
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой номеров
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewPhoneMaskerHandler(handler))
}
