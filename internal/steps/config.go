package steps

import "maps"

// Config — конфигурация одного шага плана.
//
// Config неизменяем после создания: NewConfig копирует обе map,
// методы доступа отдают их только для чтения.
type Config struct {
	stepName       string
	config         map[string]any
	implicitConfig map[string]any
}

// NewConfig создаёт Config. nil map заменяются пустыми.
//
// stepName выбирает тип шага в Registry, config — параметры этого шага,
// implicitConfig — значения по умолчанию, общие для всех шагов плана.
func NewConfig(stepName string, config, implicitConfig map[string]any) Config {
	return Config{
		stepName:       stepName,
		config:         copyMap(config),
		implicitConfig: copyMap(implicitConfig),
	}
}

// StepName возвращает имя типа шага.
func (c Config) StepName() string {
	return c.stepName
}

// Config возвращает параметры шага. Изменять результат нельзя.
func (c Config) Config() map[string]any {
	if c.config == nil {
		return map[string]any{}
	}
	return c.config
}

// ImplicitConfig возвращает неявные параметры плана. Изменять результат нельзя.
func (c Config) ImplicitConfig() map[string]any {
	if c.implicitConfig == nil {
		return map[string]any{}
	}
	return c.implicitConfig
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	return maps.Clone(m)
}
