package services

import "whatsapp-chat-viewer/internal/domain"

// Grow возвращает новый размер окна: min(current+step, filteredLength), не меньше нуля.
// Рост за пределы filteredLength упирается в потолок без ошибки.
func Grow(current, step, filteredLength int) int {
	return clamp(current+step, filteredLength)
}

func clamp(v, filteredLength int) int {
	if filteredLength < 0 {
		filteredLength = 0
	}
	if v > filteredLength {
		return filteredLength
	}
	if v < 0 {
		return 0
	}
	return v
}

// Window хранит количество материализованных сообщений отфильтрованного результата.
// Размер окна растет монотонно и сбрасывается только через Reset.
type Window struct {
	initial int
	step    int
	visible int
}

// NewWindow создает окно с начальным размером и шагом роста.
func NewWindow(initial, step int) *Window {
	if initial < 0 {
		initial = 0
	}
	if step <= 0 {
		step = 1
	}
	return &Window{initial: initial, step: step}
}

// Reset возвращает окно к начальному размеру. Вызывается при смене фильтров или индекса.
func (w *Window) Reset(filteredLength int) {
	w.visible = clamp(w.initial, filteredLength)
}

// Grow увеличивает окно на один шаг.
func (w *Window) Grow(filteredLength int) int {
	w.visible = Grow(w.visible, w.step, filteredLength)
	return w.visible
}

// Visible возвращает текущий размер окна.
func (w *Window) Visible() int {
	return w.visible
}

// Step возвращает шаг роста окна.
func (w *Window) Step() int {
	return w.step
}

// State возвращает состояние окна.
func (w *Window) State() domain.WindowState {
	return domain.WindowState{VisibleCount: w.visible}
}

// Slice возвращает копию видимой части отфильтрованного результата.
func (w *Window) Slice(filtered []domain.ParsedMessage) []domain.ParsedMessage {
	n := clamp(w.visible, len(filtered))
	out := make([]domain.ParsedMessage, n)
	copy(out, filtered[:n])
	return out
}
