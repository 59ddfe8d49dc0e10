package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ansonwcy/ccusage-overlay/internal/domain"
)

// projectsMarker is the path segment that starts the projects hierarchy in
// the data directory. The segment after it is the project id.
const projectsMarker = "projects"

// rawRecord maps the JSONL structure we care about.
type rawRecord struct {
	Timestamp string   `json:"timestamp"`
	RequestID string   `json:"requestId"`
	CostUSD   *float64 `json:"costUSD"`
	Message   *struct {
		ID    string `json:"id"`
		Usage *struct {
			InputTokens              int `json:"input_tokens"`
			OutputTokens             int `json:"output_tokens"`
			CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// SourceInfo identifies one log file and the project and session ids derived
// from its path.
type SourceInfo struct {
	Path    string
	Project string
	Session string
}

// DeriveSource extracts project and session ids from a log file path. The
// project is the segment after the projects marker; the session is the base
// name without its extension. Returns false when the marker is missing or no
// segments follow it, in which case the file contributes zero events.
func DeriveSource(path string) (SourceInfo, bool) {
	segs := strings.Split(filepath.ToSlash(path), "/")

	marker := -1
	for i, s := range segs {
		if s == projectsMarker {
			marker = i
			break
		}
	}
	// Need a project segment and a file name after the marker.
	if marker == -1 || marker+2 >= len(segs) {
		return SourceInfo{}, false
	}

	project := segs[marker+1]
	if project == "" {
		project = "Unknown"
	}
	base := segs[len(segs)-1]
	session := strings.TrimSuffix(base, filepath.Ext(base))

	return SourceInfo{Path: path, Project: project, Session: session}, true
}

// ParseReader reads JSONL from r line by line, producing one UsageEvent per
// valid line. A line is valid when it parses, its timestamp is non-empty and
// well formed, and it carries a usage block with a numeric cost. Malformed
// lines are dropped individually with a diagnostic; they never invalidate
// sibling lines.
func ParseReader(r io.Reader, src SourceInfo, log *zap.Logger) []domain.UsageEvent {
	if log == nil {
		log = zap.NewNop()
	}

	var events []domain.UsageEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec rawRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Debug("dropping malformed line",
				zap.String("file", src.Path), zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		if rec.Timestamp == "" || rec.Message == nil || rec.Message.Usage == nil || rec.CostUSD == nil {
			log.Debug("dropping incomplete record",
				zap.String("file", src.Path), zap.Int("line", lineNo))
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			log.Debug("dropping record with bad timestamp",
				zap.String("file", src.Path), zap.Int("line", lineNo), zap.String("timestamp", rec.Timestamp))
			continue
		}

		events = append(events, domain.UsageEvent{
			Timestamp:           ts.UTC(),
			InputTokens:         rec.Message.Usage.InputTokens,
			OutputTokens:        rec.Message.Usage.OutputTokens,
			CacheCreationTokens: rec.Message.Usage.CacheCreationInputTokens,
			CacheReadTokens:     rec.Message.Usage.CacheReadInputTokens,
			Cost:                *rec.CostUSD,
			Project:             src.Project,
			Session:             src.Session,
			SourcePath:          src.Path,
			MessageID:           rec.Message.ID,
			RequestID:           rec.RequestID,
		})
	}

	if err := scanner.Err(); err != nil {
		log.Warn("stopped reading mid-file", zap.String("file", src.Path), zap.Error(err))
	}

	return events
}
