package bulk

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ActionFunc возвращает action-дескриптор для записи с указанным id.
type ActionFunc func(id int) map[string]any

// Transform чередует action-дескрипторы и payload-объекты.
//
// Результат имеет длину 2*len(partition): на чётных позициях — actionFn(offset+i),
// на нечётных — {fieldName: partition[i]}. Для пустого partition
// возвращается пустой slice, actionFn не вызывается.
func Transform(partition [][]float32, fieldName string, actionFn ActionFunc, offset int) []map[string]any {
	batch := make([]map[string]any, 0, 2*len(partition))
	for i, vec := range partition {
		batch = append(batch,
			actionFn(offset+i),
			map[string]any{fieldName: vec},
		)
	}
	return batch
}

// IndexAction возвращает ActionFunc для операции index в указанный индекс.
func IndexAction(index string) ActionFunc {
	return func(id int) map[string]any {
		return map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    strconv.Itoa(id),
			},
		}
	}
}

// Range — диапазон записей [Offset, Offset+Len).
type Range struct {
	Offset int
	Len    int
}

// End возвращает конец диапазона (не включительно).
func (r Range) End() int {
	return r.Offset + r.Len
}

// Partitions делит n записей на диапазоны длиной не более size.
// При n <= 0 или size <= 0 возвращает nil.
func Partitions(n, size int) []Range {
	if n <= 0 || size <= 0 {
		return nil
	}

	ranges := make([]Range, 0, (n+size-1)/size)
	for offset := 0; offset < n; offset += size {
		ranges = append(ranges, Range{
			Offset: offset,
			Len:    min(size, n-offset),
		})
	}
	return ranges
}

// EncodeNDJSON пишет batch в формате newline-delimited JSON:
// по одному объекту на строку, с завершающим переводом строки.
func EncodeNDJSON(w io.Writer, batch []map[string]any) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, item := range batch {
		// Encoder сам добавляет '\n' после каждого объекта
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode bulk item %d: %w", i, err)
		}
	}
	return bw.Flush()
}
