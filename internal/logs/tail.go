package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	maxLineBytes        = 1024 * 1024
)

// Position marks where a reader stopped: the resolved file and the byte
// offset just past the last complete line consumed.
type Position struct {
	File   string
	Offset int64
}

// Last returns up to limit trailing lines of path together with the position
// at the end of the file. A missing file yields no lines and a zero position.
func Last(path string, limit int) ([]string, Position, error) {
	resolved, err := resolve(path)
	if err != nil {
		return nil, Position{}, err
	}
	if resolved == "" {
		return nil, Position{}, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, Position{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	offset, err := scanLines(file, func(line string) {
		if limit <= 0 {
			return
		}
		if len(ring) == limit {
			copy(ring, ring[1:])
			ring = ring[:limit-1]
		}
		ring = append(ring, line)
	})
	if err != nil {
		return nil, Position{}, err
	}
	return ring, Position{File: resolved, Offset: offset}, nil
}

// FollowOptions tune Follow.
type FollowOptions struct {
	// From is where to resume. A zero value starts at the current end of
	// the file.
	From         Position
	PollInterval time.Duration
}

// Follow calls emit for every line appended to path until ctx ends. It
// returns nil when ctx is canceled.
func Follow(ctx context.Context, path string, opts FollowOptions, emit func(string)) error {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	pos := opts.From
	if pos.File == "" {
		_, end, err := Last(path, 0)
		if err != nil {
			return err
		}
		pos = end
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		next, err := readFrom(path, pos, emit)
		if err != nil {
			return err
		}
		pos = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, pos Position, emit func(string)) (Position, error) {
	resolved, err := resolve(path)
	if err != nil || resolved == "" {
		return pos, err
	}
	if resolved != pos.File {
		pos = Position{File: resolved}
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pos, nil
		}
		return pos, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return pos, fmt.Errorf("stat log file: %w", err)
	}
	if pos.Offset > info.Size() {
		// Truncated in place.
		pos.Offset = 0
	}
	if _, err := file.Seek(pos.Offset, io.SeekStart); err != nil {
		return pos, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scanLines(file, emit)
	if err != nil {
		return pos, err
	}
	pos.Offset += consumed
	return pos, nil
}

// scanLines emits each complete line and returns how many bytes those lines
// covered. A trailing partial line is left for the next read.
func scanLines(r io.Reader, emit func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			consumed += int64(len(line))
			text := line[:len(line)-1]
			if n := len(text); n > 0 && text[n-1] == '\r' {
				text = text[:n-1]
			}
			if len(text) > maxLineBytes {
				text = text[:maxLineBytes]
			}
			emit(text)
			continue
		}
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		return consumed, fmt.Errorf("read log file: %w", err)
	}
}

// resolve follows a symlinked log pointer. It returns "" when nothing exists
// at path yet.
func resolve(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("log path %q is a directory", path)
	}
	return resolved, nil
}
