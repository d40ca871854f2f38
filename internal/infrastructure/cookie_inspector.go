package infrastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/tunedrop/internal/domain"
)

// expiryColumn is the expiry field index in a Netscape cookie row
const expiryColumn = 4

// ParseCookieLine parses one tab-separated row of a Netscape cookie export.
// It returns false for blank lines, comments and rows without a numeric expiry.
func ParseCookieLine(line string) (domain.CookieRecord, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return domain.CookieRecord{}, false
	}

	fields := strings.Split(line, "\t")
	if len(fields) <= expiryColumn {
		return domain.CookieRecord{}, false
	}

	expiry, err := strconv.ParseInt(strings.TrimSpace(fields[expiryColumn]), 10, 64)
	if err != nil {
		return domain.CookieRecord{}, false
	}

	record := domain.CookieRecord{
		Domain:             fields[0],
		IncludeSubdomains:  strings.EqualFold(fields[1], "TRUE"),
		Path:               fields[2],
		Secure:             strings.EqualFold(fields[3], "TRUE"),
		ExpiryEpochSeconds: expiry,
	}
	if len(fields) > 5 {
		record.Name = fields[5]
	}
	if len(fields) > 6 {
		record.Value = fields[6]
	}
	return record, true
}

// ReadCookieExpiry scans a cookie export and returns the latest expiry.
// Session cookies (expiry 0) are counted as entries but never govern.
func ReadCookieExpiry(r io.Reader) (*domain.CookieExpiry, error) {
	result := &domain.CookieExpiry{}
	var latest int64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		record, ok := ParseCookieLine(scanner.Text())
		if !ok {
			continue
		}
		result.Entries++
		if record.ExpiryEpochSeconds > latest {
			latest = record.ExpiryEpochSeconds
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}

	if latest > 0 {
		t := time.Unix(latest, 0).UTC()
		result.ExpiresAt = &t
	}
	return result, nil
}

// InspectCookieFile reads the cookie file at path on every call
func InspectCookieFile(path string) (*domain.CookieExpiry, error) {
	if path == "" {
		return nil, domain.ErrCookieFileNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCookieFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	return ReadCookieExpiry(f)
}
