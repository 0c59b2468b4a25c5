package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrArchiveOpen — архив не удалось открыть или прочитать.
	ErrArchiveOpen = errors.New("archive cannot be opened")
	// ErrNoTranscriptFound — в архиве нет записи, похожей на экспорт чата.
	ErrNoTranscriptFound = errors.New("no chat transcript found in archive")
	// ErrEmptyInput — загружен пустой файл.
	ErrEmptyInput = errors.New("empty input")
)

// ArchiveError описывает ошибку распаковки архива.
// errors.Is срабатывает как для Kind, так и для исходной причины.
type ArchiveError struct {
	// Этап, на котором произошла ошибка: open, read или locate.
	Op string
	// Kind — ErrArchiveOpen или ErrNoTranscriptFound.
	Kind error
	// Исходная причина, может быть nil.
	Err error
}

func (e *ArchiveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("archive %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("archive %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *ArchiveError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// FilterDateError возвращается для некорректной даты в фильтре.
type FilterDateError struct {
	Value string
	Err   error
}

func (e *FilterDateError) Error() string {
	return fmt.Sprintf("invalid filter date %q, expected YYYY-MM-DD", e.Value)
}

func (e *FilterDateError) Unwrap() error {
	return e.Err
}
