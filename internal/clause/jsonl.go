package clause

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all clauses from a JSONL file, preserving order.
// A missing file returns an empty slice, not an error.
func ReadAll(path string) ([]Clause, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening clauses file: %w", err)
	}
	defer f.Close()

	var clauses []Clause
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c Clause
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		clauses = append(clauses, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading clauses file: %w", err)
	}

	return clauses, nil
}

// WriteAll writes all clauses to a JSONL file, replacing existing content.
func WriteAll(path string, clauses []Clause) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating clauses file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, c := range clauses {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding clause %s: %w", c.ID, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing clause: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing clauses file: %w", err)
	}

	return nil
}
