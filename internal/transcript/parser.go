package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadFile reads a JSONL conversation log and returns its turns in file
// order. Malformed lines are skipped and counted so a half-corrupt log still
// exports everything that parses. The formatting pipeline never sees a
// parse failure.
func ReadFile(path string) ([]Turn, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open conversation: %w", err)
	}
	defer f.Close()

	var turns []Turn
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024) // tool results can make lines very long

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		turn, err := parseLine(line)
		if err != nil {
			skipped++
			continue
		}
		if turn != nil {
			turns = append(turns, *turn)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan conversation: %w", err)
	}

	return turns, skipped, nil
}

// ParseLines parses conversation turns from a string (for testing).
func ParseLines(content string) ([]Turn, int) {
	var turns []Turn
	skipped := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		turn, err := parseLine([]byte(line))
		if err != nil {
			skipped++
			continue
		}
		if turn != nil {
			turns = append(turns, *turn)
		}
	}
	return turns, skipped
}

func parseLine(line []byte) (*Turn, error) {
	var turn Turn
	if err := json.Unmarshal(line, &turn); err != nil {
		return nil, err
	}

	// Lines without any role are bookkeeping records (summaries, file
	// snapshots), not conversation turns.
	if turn.RoleName() == "" {
		return nil, nil
	}

	return &turn, nil
}
