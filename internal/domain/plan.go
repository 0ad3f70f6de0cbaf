package domain

// Plan — план бенчмарка.
//
// План описывает последовательность шагов, которая выполняется
// NumRuns раз. Шаги внутри итерации идут строго по порядку.
type Plan struct {
	// Name — имя плана (например, "faiss-hnsw-ingest").
	Name string `json:"name"`

	// Description — описание плана.
	Description string `json:"description,omitempty"`

	// NumRuns — число итераций. 0 трактуется как 1.
	NumRuns int `json:"num_runs,omitempty"`

	// ImplicitConfig — параметры по умолчанию для всех шагов
	// (например, index_name, field_name).
	ImplicitConfig map[string]any `json:"implicit_config,omitempty"`

	// Steps — шаги плана в порядке выполнения.
	Steps []StepDef `json:"steps"`
}

// StepDef — определение шага в плане.
type StepDef struct {
	// Name — тип шага из реестра: "delay", "create_index", "ingest", ...
	Name string `json:"name"`

	// Config — параметры шага (зависят от типа).
	// Для delay: duration_ms
	// Для ingest: dataset_path, bulk_size, doc_count
	Config map[string]any `json:"config,omitempty"`
}

// Iterations возвращает число итераций плана.
func (p *Plan) Iterations() int {
	if p.NumRuns <= 0 {
		return 1
	}
	return p.NumRuns
}
