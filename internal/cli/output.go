package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Perftool/internal/domain"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными writers.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// summaryHeaders — колонки сводки run.
var summaryHeaders = []string{"POS", "STEP", "NAME", "MEASURE", "COUNT", "MEAN", "MIN", "MAX", "P50", "P90", "P99"}

// summaryRows раскладывает сводку: одна строка на (шаг, метрика).
// Метрики шага сортируются по имени.
func summaryRows(summary []domain.StepSummary) [][]string {
	var rows [][]string
	for _, s := range summary {
		names := make([]string, 0, len(s.Measures))
		for name := range s.Measures {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			m := s.Measures[name]
			rows = append(rows, []string{
				strconv.Itoa(s.Position),
				s.Label,
				s.CustomName,
				name,
				strconv.Itoa(m.Count),
				formatFloat(m.Mean),
				formatFloat(m.Min),
				formatFloat(m.Max),
				formatFloat(m.P50),
				formatFloat(m.P90),
				formatFloat(m.P99),
			})
		}
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
