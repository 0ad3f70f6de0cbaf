// Package steps содержит шаги бенчмарка и их выполнение под профилированием.
//
// # Обзор
//
// Шаг плана описывается парой (имя типа, параметры) и превращается
// в исполняемый Step через Registry:
//
//	registry := steps.DefaultRegistry(client.New(client.ConfigFromEnv()))
//	cfg := steps.NewConfig("delay", map[string]any{"duration_ms": 500}, implicit)
//	step, err := registry.Build(cfg)
//	if err != nil {
//	    // неизвестный тип или неверная конфигурация
//	}
//	records, err := step.Execute(ctx)
//
// # Config
//
// Config хранит имя типа, параметры шага и implicit config плана
// (значения по умолчанию, общие для всех шагов, например index_name).
// Config неизменяем.
//
// # Step
//
// Step оборачивает Kind: резолвит custom_name (config, затем implicit config,
// затем Label типа), логирует начало и конец выполнения и запускает action
// под цепочкой измерителей profile.Measure. По умолчанию это profile.Took,
// который добавляет в результат поле "took" (миллисекунды, float64).
//
// Запись результата:
//
//	{"label": "delay", "custom_name": "warmup-pause", "duration_ms": 500, "took": 501.2}
//
// Step одноразовый: повторный Execute возвращает ErrAlreadyExecuted.
// Action, вернувший nil map, приводит к ErrInvalidResult.
//
// # Типы шагов
//
//   - base_step — без логики, всегда ErrInvalidResult (base.go)
//   - delay — пауза (delay.go)
//   - create_index, delete_index, refresh_index — управление индексом (index.go)
//   - ingest — загрузка векторов bulk-запросами (ingest.go)
//   - query — k-NN запросы и recall@k (query.go)
//
// Шаги, работающие с движком, получают его через интерфейс Engine.
package steps
