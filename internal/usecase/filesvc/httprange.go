package filesvc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sir_venger/drive_lite/internal/models"
)

// RangeSpec — байтовый интервал [Start, End] (обе границы включительно)
// внутри файла размера size.
type RangeSpec struct {
	Start int64
	End   int64
}

const bytesUnitPrefix = "bytes="

// ParseRange разбирает одиночный Range-заголовок вида "bytes=start-end".
// nil без ошибки означает «диапазона нет, отдать файл целиком».
//
// Поддерживаемые формы:
//   - "bytes=a-b"  — end за пределами файла прижимается к size-1;
//   - "bytes=a-"   — от a до конца файла;
//   - "bytes=-n"   — последние n байт; n больше размера — весь файл.
//
// Многодиапазонные заголовки (через запятую) не поддерживаются и отклоняются
// как Range Not Satisfiable — ровно как в исходном сервисе.
func ParseRange(header string, size int64) (*RangeSpec, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	if !strings.HasPrefix(header, bytesUnitPrefix) {
		return nil, fmt.Errorf("range must use bytes unit: %w", models.ErrInvalidRequest)
	}

	spec := strings.TrimSpace(header[len(bytesUnitPrefix):])
	if strings.Contains(spec, ",") {
		return nil, fmt.Errorf("multiple ranges are not supported: %w", models.ErrRangeNotSatisfiable)
	}

	dash := strings.Index(spec, "-")
	if dash < 0 {
		return nil, unsatisfiable(spec, size)
	}

	// На пустом файле удовлетворить нечего.
	if size <= 0 {
		return nil, unsatisfiable(spec, size)
	}

	startStr := strings.TrimSpace(spec[:dash])
	endStr := strings.TrimSpace(spec[dash+1:])

	// Суффиксная форма "-n": последние n байт.
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, unsatisfiable(spec, size)
		}
		if n >= size {
			return &RangeSpec{Start: 0, End: size - 1}, nil
		}
		return &RangeSpec{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, unsatisfiable(spec, size)
	}
	if start >= size {
		return nil, unsatisfiable(spec, size)
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, unsatisfiable(spec, size)
		}
		if start > end {
			return nil, unsatisfiable(spec, size)
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return &RangeSpec{Start: start, End: end}, nil
}

func unsatisfiable(spec string, size int64) error {
	return fmt.Errorf("range %q for size %d: %w", spec, size, models.ErrRangeNotSatisfiable)
}
