// Package profile оборачивает action шага измерителями (measures).
//
// Measure получает Action и возвращает Action с тем же поведением,
// добавляя к результату поля измерений:
//
//	action = profile.Chain(action, profile.Took{}, profile.Observe{Observer: hist})
//	result, err := action(ctx)
//	// result["took"] — время выполнения в миллисекундах (float64)
//
// Измерители не перехватывают ошибки и не меняют ключи, которые вернул
// сам action. При ошибке action поля измерений не добавляются.
package profile
