package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// LogEntry is one line of a category log. Tool logs are plain text and only
// carry Message.
type LogEntry struct {
	Timestamp string                 `json:"ts,omitempty"`
	Level     string                 `json:"level,omitempty"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader reads the daily category files written by MultiLogger and ToolLog
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{logsDir: logsDir}
}

// ValidCategory reports whether category has daily log files
func ValidCategory(category LogCategory) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ReadLogs returns the last limit entries of a category's file for date.
// A missing file yields no entries. query, when set, filters case-insensitively.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	file, err := os.Open(CategoryLogPath(lr.logsDir, category, date.Format("20060102")))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	query = strings.ToLower(query)
	entries := []LogEntry{}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(line), query) {
			continue
		}
		entries = append(entries, parseEntry(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func parseEntry(line string) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{Message: line}
	}

	entry := LogEntry{}
	if v, ok := raw["ts"].(string); ok {
		entry.Timestamp = v
	}
	if v, ok := raw["level"].(string); ok {
		entry.Level = v
	}
	if v, ok := raw["msg"].(string); ok {
		entry.Message = v
	}
	delete(raw, "ts")
	delete(raw, "level")
	delete(raw, "msg")
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry
}
