package memory

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
)

// FileLog stores one post per line in a plain text file.
type FileLog struct {
	Path string
}

func NewFileLog(path string) *FileLog {
	return &FileLog{Path: path}
}

// Recent returns the last n non-empty lines. A missing file is an empty history.
func (f *FileLog) Recent(_ context.Context, n int) ([]string, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lastN(lines, n), nil
}

// Append writes text as a single line; inner line breaks become spaces.
func (f *FileLog) Append(_ context.Context, text string) error {
	line := flatten(text)
	if line == "" {
		return nil
	}
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func flatten(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func lastN(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
