// Package dataset читает наборы векторов в форматах fvecs/ivecs.
//
// Каждая запись: int32 dim (little-endian), затем dim значений
// (float32 для fvecs, int32 для ivecs). Файлы с расширением .zst
// распаковываются на лету.
package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// MaxDimension — наибольшая допустимая размерность записи. Заголовок
// с большим dim считается повреждённым: память под запись не выделяется.
const MaxDimension = 65536

// Ошибки чтения набора.
var (
	// ErrInvalidDimension — размерность записи <= 0, больше MaxDimension
	// или отличается от первой записи.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrTruncatedRecord — файл оборвался посреди записи.
	ErrTruncatedRecord = errors.New("truncated vector record")
)

// Open открывает файл набора. Для *.zst возвращает распаковывающий reader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}
	return &zstdFile{dec: dec, f: f}, nil
}

// zstdFile закрывает и decoder, и файл.
type zstdFile struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdFile) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdFile) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// Reader читает записи последовательно, порциями. Размерность всех
// записей должна совпадать с первой.
type Reader struct {
	br  *bufio.Reader
	buf []byte // тело записи, dim*4 байт
	dim int32
	n   int
}

// NewReader создаёт Reader поверх r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Fvecs читает до limit float32-векторов. limit <= 0 — читать до конца.
// В конце файла возвращает пустой slice без ошибки.
func (r *Reader) Fvecs(limit int) ([][]float32, error) {
	return readVecs[float32](r, limit)
}

// Ivecs читает до limit int32-векторов.
func (r *Reader) Ivecs(limit int) ([][]int32, error) {
	return readVecs[int32](r, limit)
}

// Count возвращает число прочитанных записей.
func (r *Reader) Count() int {
	return r.n
}

// ReadFvecs читает float32-векторы. limit <= 0 — читать всё.
func ReadFvecs(r io.Reader, limit int) ([][]float32, error) {
	return NewReader(r).Fvecs(limit)
}

// ReadIvecs читает int32-векторы (например, ground truth соседей).
func ReadIvecs(r io.Reader, limit int) ([][]int32, error) {
	return NewReader(r).Ivecs(limit)
}

// LoadFvecs открывает файл и читает float32-векторы.
func LoadFvecs(path string, limit int) ([][]float32, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	vecs, err := ReadFvecs(rc, limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vecs, nil
}

// LoadIvecs открывает файл и читает int32-векторы.
func LoadIvecs(path string, limit int) ([][]int32, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	vecs, err := ReadIvecs(rc, limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vecs, nil
}

func readVecs[T float32 | int32](r *Reader, limit int) ([][]T, error) {
	var vecs [][]T

	for limit <= 0 || len(vecs) < limit {
		var dim int32
		err := binary.Read(r.br, binary.LittleEndian, &dim)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record %d header", ErrTruncatedRecord, r.n)
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", r.n, err)
		}

		if dim <= 0 || dim > MaxDimension || (r.dim != 0 && dim != r.dim) {
			return nil, fmt.Errorf("%w: record %d has dim %d", ErrInvalidDimension, r.n, dim)
		}
		r.dim = dim

		if len(r.buf) != int(dim)*4 {
			r.buf = make([]byte, int(dim)*4)
		}
		if _, err := io.ReadFull(r.br, r.buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: record %d body", ErrTruncatedRecord, r.n)
			}
			return nil, fmt.Errorf("read record %d: %w", r.n, err)
		}
		vecs = append(vecs, decode[T](r.buf))
		r.n++
	}

	return vecs, nil
}

// decode разбирает little-endian тело записи.
func decode[T float32 | int32](buf []byte) []T {
	vec := make([]T, len(buf)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(buf[i*4:])
		switch p := any(&vec[i]).(type) {
		case *float32:
			*p = math.Float32frombits(bits)
		case *int32:
			*p = int32(bits)
		}
	}
	return vec
}
