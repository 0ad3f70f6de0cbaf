// Package report агрегирует измерения шагов по итерациям плана.
package report

import (
	"math"
	"sort"

	"github.com/shaiso/Perftool/internal/domain"
)

// Перцентили сводки.
const (
	p50 = 50
	p90 = 90
	p99 = 99
)

type groupKey struct {
	position   int
	customName string
}

type group struct {
	label    string
	measures map[string][]float64
}

// Summarize группирует записи по (позиция шага, custom_name) и для каждого
// числового измерения (int, float64) считает count, mean, min, max и
// перцентили p50/p90/p99 по методу nearest-rank. Нечисловые значения
// (label, custom_name, bool) пропускаются. Результат упорядочен по позиции.
func Summarize(results []domain.StepResult) []domain.StepSummary {
	groups := make(map[groupKey]*group)
	var keys []groupKey

	for _, r := range results {
		key := groupKey{position: r.Position, customName: r.CustomName}
		g, ok := groups[key]
		if !ok {
			g = &group{label: r.Label, measures: make(map[string][]float64)}
			groups[key] = g
			keys = append(keys, key)
		}

		for name, v := range r.Measures {
			if f, ok := numeric(v); ok {
				g.measures[name] = append(g.measures[name], f)
			}
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].position != keys[j].position {
			return keys[i].position < keys[j].position
		}
		return keys[i].customName < keys[j].customName
	})

	summaries := make([]domain.StepSummary, 0, len(keys))
	for _, key := range keys {
		g := groups[key]

		s := domain.StepSummary{
			Position:   key.position,
			Label:      g.label,
			CustomName: key.customName,
			Measures:   make(map[string]domain.MeasureSummary, len(g.measures)),
		}
		for name, values := range g.measures {
			s.Measures[name] = Describe(values)
		}
		summaries = append(summaries, s)
	}

	return summaries
}

// Describe считает статистику выборки. Входной slice не изменяется.
func Describe(values []float64) domain.MeasureSummary {
	if len(values) == 0 {
		return domain.MeasureSummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return domain.MeasureSummary{
		Count: len(sorted),
		Mean:  sum / float64(len(sorted)),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		P50:   percentileSorted(sorted, p50),
		P90:   percentileSorted(sorted, p90),
		P99:   percentileSorted(sorted, p99),
	}
}

// Percentile возвращает p-й перцентиль (0 < p <= 100) по методу nearest-rank.
// Для пустой выборки возвращает 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	rank = max(rank, 1)
	rank = min(rank, len(sorted))
	return sorted[rank-1]
}

// numeric возвращает значение измерения как float64.
// Учитываются только int и float64, как в записях шагов.
func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
