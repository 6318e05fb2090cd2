package recording

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const sniffSize = 4096

// sniffDelimiter guesses the column separator from the first data line:
// tab, then comma, otherwise any run of whitespace (reported as ' ').
func sniffDelimiter(br *bufio.Reader) (rune, error) {
	head, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("failed to read file header: %w", err)
	}

	for line := range bytes.Lines(head) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		switch {
		case bytes.ContainsRune(line, '\t'):
			return '\t', nil
		case bytes.ContainsRune(line, ','):
			return ',', nil
		default:
			return ' ', nil
		}
	}
	return ',', nil
}

// readDelimited feeds CSV or TSV records to tb
func readDelimited(r io.Reader, delim rune, tb *tableBuilder) error {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read delimited record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if err := tb.add(record, line); err != nil {
			return err
		}
	}
}

// readWhitespace feeds whitespace separated lines to tb
func readWhitespace(r io.Reader, tb *tableBuilder) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := tb.add(strings.Fields(text), line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan text recording: %w", err)
	}
	return nil
}
