package params

import (
	"errors"
	"fmt"
)

// ErrConfiguration — базовая ошибка конфигурации шага.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError — параметр отсутствует или имеет неверный тип.
type ConfigurationError struct {
	Key     string // ключ параметра
	Message string // описание ошибки
}

// Error реализует интерфейс error.
func (e *ConfigurationError) Error() string {
	return e.Message
}

// Unwrap возвращает ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func absentError(key string) error {
	return &ConfigurationError{
		Key:     key,
		Message: fmt.Sprintf("value cannot be absent for key %s", key),
	}
}

func typeError(key, typeName string) error {
	return &ConfigurationError{
		Key:     key,
		Message: fmt.Sprintf("value must be of type %s for key %s", typeName, key),
	}
}
