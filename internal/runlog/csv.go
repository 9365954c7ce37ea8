package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteRequests はリクエストログをCSVとして書き出す
func WriteRequests(w io.Writer, entries []RequestEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RequestColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range entries {
		rt := ""
		if e.HasResponseTime {
			rt = strconv.FormatFloat(e.ResponseTime, 'f', -1, 64)
		}
		record := []string{
			strconv.FormatFloat(e.Timestamp, 'f', -1, 64),
			e.Type,
			e.Name,
			e.Status,
			rt,
			strconv.FormatInt(e.ResponseLength, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteIntervals はインターバルログをCSVとして書き出す
func WriteIntervals(w io.Writer, values []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{IntervalColumn}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, v := range values {
		if err := cw.Write([]string{strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ErrNoHeader はヘッダ行が無い（空ファイル）ことを示す
var ErrNoHeader = errors.New("missing header row")

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// readHeader は先頭行を読み、コピーを返す
func readHeader(cr *csv.Reader) ([]string, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out, nil
}

// eachRow は行ごとにfnを呼ぶ。CSVの構文エラーになった行はスキップしてカウントする
func eachRow(cr *csv.Reader, fn func([]string) bool) (skipped int, err error) {
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return skipped, fmt.Errorf("read row: %w", err)
		}
		if !fn(record) {
			skipped++
		}
	}
}

// ReadRequests はリクエストログを読み込む
// 先頭6列のみを使い、壊れた行はスキップしてその数を返す
func ReadRequests(r io.Reader) ([]RequestEntry, int, error) {
	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, 0, err
	}
	if len(header) < len(RequestColumns) {
		return nil, 0, fmt.Errorf("header has %d columns, want at least %d", len(header), len(RequestColumns))
	}
	for i, col := range RequestColumns {
		if header[i] != col {
			return nil, 0, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], col)
		}
	}

	var entries []RequestEntry
	skipped, err := eachRow(cr, func(record []string) bool {
		e, ok := parseRequest(record)
		if ok {
			entries = append(entries, e)
		}
		return ok
	})
	if err != nil {
		return nil, skipped, err
	}
	return entries, skipped, nil
}

func parseRequest(record []string) (RequestEntry, bool) {
	if len(record) < len(RequestColumns) {
		return RequestEntry{}, false
	}

	ts, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return RequestEntry{}, false
	}

	e := RequestEntry{
		Timestamp: ts,
		Type:      strings.TrimSpace(record[1]),
		Name:      strings.TrimSpace(record[2]),
		Status:    strings.TrimSpace(record[3]),
	}

	if !isNA(record[4]) {
		rt, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err != nil {
			return RequestEntry{}, false
		}
		if !math.IsNaN(rt) && !math.IsInf(rt, 0) {
			e.ResponseTime = rt
			e.HasResponseTime = true
		}
	}

	if !isNA(record[5]) {
		n, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
		if err != nil {
			return RequestEntry{}, false
		}
		e.ResponseLength = int64(n)
	}

	return e, true
}

// ReadIntervals はインターバルログの interval_ms 列を読み込む
// 未定義値は捨て、数値として読めない行はスキップしてその数を返す
func ReadIntervals(r io.Reader) ([]float64, int, error) {
	cr := newReader(r)
	header, err := readHeader(cr)
	if err != nil {
		return nil, 0, err
	}

	col := -1
	for i, h := range header {
		if h == IntervalColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, 0, fmt.Errorf("column %q not found", IntervalColumn)
	}

	var values []float64
	skipped, err := eachRow(cr, func(record []string) bool {
		if col >= len(record) || isNA(record[col]) {
			return true
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return false
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
		values = append(values, v)
		return true
	})
	if err != nil {
		return nil, skipped, err
	}
	return values, skipped, nil
}
