package services

import (
	"whatsapp-chat-viewer/internal/domain"
)

// BuildIndex собирает неизменяемый снимок чата.
// Участники перечисляются в порядке первого появления, даты начала и конца
// берутся из первого и последнего сообщения в порядке экспорта.
func BuildIndex(generation uint64, messages []domain.ParsedMessage, library *domain.MediaLibrary) *domain.ChatIndex {
	msgs := make([]domain.ParsedMessage, len(messages))
	copy(msgs, messages)

	participants := make([]string, 0)
	seen := make(map[string]struct{})
	mediaSeen := make(map[string]struct{})

	for _, m := range msgs {
		if _, ok := seen[m.Sender]; !ok {
			seen[m.Sender] = struct{}{}
			participants = append(participants, m.Sender)
		}
		if m.Media != nil {
			mediaSeen[m.Media.Filename] = struct{}{}
		}
	}

	idx := &domain.ChatIndex{
		Generation:   generation,
		Messages:     msgs,
		Participants: participants,
		TotalCount:   len(msgs),
		MediaCount:   len(mediaSeen),
		Library:      library,
	}
	if len(msgs) > 0 {
		idx.StartDate = msgs[0].Date
		idx.EndDate = msgs[len(msgs)-1].Date
	}
	return idx
}
