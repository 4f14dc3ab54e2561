// Package export writes the session log as CSV, optionally zstd-compressed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/auditlog"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the export encoding.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
)

// Header is the first CSV row.
var Header = []string{"id", "created_at", "actor", "action", "result", "severity", "batch_id"}

// ParseCompression accepts "", "none" and "zstd", case-insensitively.
func ParseCompression(value string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unsupported compression %q", value)
	}
}

// Filename returns the download name for the encoding.
func (c Compression) Filename(base string) string {
	if c == CompressionZstd {
		return base + ".csv.zst"
	}
	return base + ".csv"
}

// ContentType returns the HTTP content type for the encoding.
func (c Compression) ContentType() string {
	if c == CompressionZstd {
		return "application/zstd"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes entries in the order given.
func Write(w io.Writer, entries []auditlog.Entry, compression Compression) error {
	if compression != CompressionZstd {
		return WriteCSV(w, entries)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := WriteCSV(enc, entries); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per entry.
func WriteCSV(w io.Writer, entries []auditlog.Entry) error {
	out := csv.NewWriter(w)
	if err := out.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		if err := out.Write([]string{
			strconv.FormatInt(entry.ID, 10),
			entry.CreatedAt.UTC().Format(time.RFC3339Nano),
			entry.Actor,
			entry.Action,
			entry.Result,
			string(entry.Severity),
			entry.BatchID,
		}); err != nil {
			return fmt.Errorf("write csv row %d: %w", entry.ID, err)
		}
	}
	out.Flush()
	return out.Error()
}
