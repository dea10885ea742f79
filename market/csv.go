package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarHeader is the column layout read and written by the CSV codec.
var BarHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// LoadBarsCSV reads a bar CSV file. See ReadBarsCSV.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadBarsCSV(f)
}

// ReadBarsCSV reads canonical bar rows:
//
//	timestamp,open,high,low,close,volume
//
// where timestamp is epoch milliseconds or RFC3339(Nano).
// A single header row is allowed. Empty rows are skipped; short rows are an error.
func ReadBarsCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		bars     []Bar
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") ||
				strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 6 {
		return Bar{}, fmt.Errorf("need 6 columns (timestamp,open,high,low,close,volume), got %d", len(row))
	}

	t, err := ParseTimestamp(row[0])
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", BarHeader[i+1], row[i+1], err)
		}
		vals[i] = v
	}

	return Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// ParseTimestamp accepts epoch milliseconds, RFC3339 or RFC3339Nano.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
		}
		t = t2
	}
	return t.UTC(), nil
}

// WriteBarsCSV writes bars with a header row and epoch millisecond timestamps.
func WriteBarsCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BarHeader); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{
			strconv.FormatInt(b.Time.UnixMilli(), 10),
			fmtFloat(b.Open),
			fmtFloat(b.High),
			fmtFloat(b.Low),
			fmtFloat(b.Close),
			fmtFloat(b.Volume),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveBarsCSV writes bars to path, replacing any existing file.
func SaveBarsCSV(path string, bars []Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBarsCSV(f, bars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
