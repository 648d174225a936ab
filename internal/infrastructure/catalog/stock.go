package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/productrecommend/backend/internal/domain"
)

// StockStatusColumn is the header of the column written by AugmentStockStatus
const StockStatusColumn = "stock_status"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StatusPicker chooses a stock label for one catalog row
type StatusPicker func() domain.StockStatus

// RandomPicker picks uniformly among the three stock labels
func RandomPicker(rng *rand.Rand) StatusPicker {
	statuses := domain.StockStatuses()
	return func() domain.StockStatus {
		return statuses[rng.IntN(len(statuses))]
	}
}

// AugmentStockStatus copies the product CSV from r to w with a stock_status
// column filled by pick. An existing stock_status column is overwritten.
// The output starts with a UTF-8 BOM. It returns the number of data rows written.
func AugmentStockStatus(r io.Reader, w io.Writer, pick StatusPicker) (int, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("catalog is empty")
	}
	if err != nil {
		return 0, fmt.Errorf("reading header: %w", err)
	}

	column := indexOf(header, StockStatusColumn)
	if column < 0 {
		header = append(header, StockStatusColumn)
		column = len(header) - 1
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("writing BOM: %w", err)
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	rows := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("reading row %d: %w", rows+1, err)
		}

		for len(row) <= column {
			row = append(row, "")
		}
		row[column] = string(pick())

		if err := writer.Write(row); err != nil {
			return rows, fmt.Errorf("writing row %d: %w", rows+1, err)
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return rows, fmt.Errorf("flushing output: %w", err)
	}
	return rows, nil
}

// skipBOM drops a leading UTF-8 BOM if present
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
