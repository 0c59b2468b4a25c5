package source

import (
	"errors"
	"fmt"
	"io"
	"whatsapp-chat-viewer/internal/domain"
	"whatsapp-chat-viewer/internal/ports"
)

// MemorySource реализует интерфейс DataSource для данных, уже находящихся в памяти
// (например, загруженных через HTTP).
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// NewReaderSource вычитывает reader целиком, но не более maxBytes байт.
func NewReaderSource(r io.Reader, maxBytes int64) (ports.DataSource, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("загруженный файл превышает %d байт", maxBytes)
	}
	return &MemorySource{data: data}, nil
}

// Fetch возвращает копию данных из памяти.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, errors.New("data not set")
	}
	if len(s.data) == 0 {
		return nil, domain.ErrEmptyInput
	}

	// Возвращаем копию данных, чтобы избежать изменений оригинальных данных
	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)

	return dataCopy, nil
}
