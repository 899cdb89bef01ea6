package models

import "github.com/pkg/errors"

// Четыре вида ошибок сканера. InsufficientHistory — не сбой, а легитимный
// пропуск инструмента на этом проходе.
var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrMalformedBar        = errors.New("malformed bar")
	ErrDispatchFailure     = errors.New("dispatch failure")
)
