package services

import (
	"strings"
	"whatsapp-chat-viewer/internal/domain"
)

// Filter применяет активные фильтры к сообщениям индекса.
// Функция чистая: индекс не меняется, результат всегда новый срез
// в исходном порядке. Все активные условия объединяются через И.
func Filter(index *domain.ChatIndex, criteria domain.FilterCriteria) []domain.ParsedMessage {
	if index == nil {
		return []domain.ParsedMessage{}
	}

	criteria = criteria.Normalized()
	search := strings.ToLower(criteria.SearchText)
	participant := criteria.Participant

	// Верхняя граница включает весь день: берем полночь следующего дня как строгую границу.
	toExclusive := criteria.DateTo
	if !toExclusive.IsZero() {
		toExclusive = toExclusive.AddDate(0, 0, 1)
	}

	result := make([]domain.ParsedMessage, 0, len(index.Messages))
	for _, m := range index.Messages {
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Text), search) &&
			!strings.Contains(strings.ToLower(m.Sender), search) {
			continue
		}
		if !criteria.DateFrom.IsZero() && m.NormalizedTimestamp.Before(criteria.DateFrom) {
			continue
		}
		if !toExclusive.IsZero() && !m.NormalizedTimestamp.Before(toExclusive) {
			continue
		}
		if participant != "" && !strings.EqualFold(m.Sender, participant) {
			continue
		}
		result = append(result, m)
	}
	return result
}
