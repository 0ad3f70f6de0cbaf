// Package params извлекает типизированные значения из нетипизированной
// конфигурации шага (map[string]any).
//
// # Функции
//
// Parse* читают ключ из одной map:
//
//	name, err := params.ParseString("index_name", cfg)           // обязательный
//	field, err := params.ParseString("field_name", cfg, "vec")  // с default
//	size, err := params.ParseInt("bulk_size", cfg, 300)
//
// Resolve* ищут ключ сначала в primary, затем в fallback
// (конфигурация шага → неявная конфигурация плана):
//
//	name, err := params.ResolveString("custom_name", cfg.Config(), cfg.ImplicitConfig(), label)
//
// # Типы
//
// Значение должно иметь ровно ожидаемый тип: string, int, float64, bool,
// map[string]any. Никаких приведений: 5 (int) не принимается ParseFloat,
// 5.0 (float64) не принимается ParseInt.
//
// # Default
//
// ParseString, ParseBool, ParseMap и все Resolve* считают default заданным,
// если он передан. ParseInt и ParseFloat считают нулевой default (0, 0.0)
// незаданным: ParseInt("k", map[string]any{}, 0) возвращает ошибку.
//
// # Ошибки
//
// Все ошибки — *ConfigurationError, errors.Is(err, ErrConfiguration) == true.
package params
