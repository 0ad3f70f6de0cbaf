// Package engine разбирает и валидирует планы бенчмарков.
//
// Включает:
//   - parser.go — ParsePlan/LoadPlan из JSON, нормализация чисел, Validate
//   - errors.go — sentinel-ошибки и ValidationError
//
// Нормализация чисел нужна парсерам параметров: они различают int
// и float по точному типу значения, а encoding/json по умолчанию
// превращает любое число в float64.
package engine
