package parser

import (
	"strings"
	"testing"
)

func TestDeriveSource(t *testing.T) {
	t.Run("standard path", func(t *testing.T) {
		src, ok := DeriveSource("/home/u/.claude/projects/my-app/abc123.jsonl")
		if !ok {
			t.Fatal("expected ok")
		}
		if src.Project != "my-app" {
			t.Errorf("Project = %q, want %q", src.Project, "my-app")
		}
		if src.Session != "abc123" {
			t.Errorf("Session = %q, want %q", src.Session, "abc123")
		}
	})

	t.Run("nested session file", func(t *testing.T) {
		src, ok := DeriveSource("/data/projects/api/sub/deep.jsonl")
		if !ok {
			t.Fatal("expected ok")
		}
		if src.Project != "api" {
			t.Errorf("Project = %q, want %q", src.Project, "api")
		}
		if src.Session != "deep" {
			t.Errorf("Session = %q, want %q", src.Session, "deep")
		}
	})

	t.Run("marker missing", func(t *testing.T) {
		if _, ok := DeriveSource("/tmp/logs/abc.jsonl"); ok {
			t.Error("expected not ok without projects marker")
		}
	})

	t.Run("too few segments after marker", func(t *testing.T) {
		if _, ok := DeriveSource("/home/u/.claude/projects/orphan.jsonl"); ok {
			t.Error("expected not ok when only a file follows the marker")
		}
	})
}

func TestParseReader(t *testing.T) {
	input := strings.Join([]string{
		`{"timestamp":"2026-02-19T13:56:04.070Z","requestId":"req_1","costUSD":0.25,"message":{"id":"msg_1","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":200,"cache_read_input_tokens":30}}}`,
		`invalid json line`,
		`{"timestamp":"","requestId":"req_2","costUSD":0.1,"message":{"id":"msg_2","usage":{"input_tokens":1,"output_tokens":1}}}`,
		`{"timestamp":"2026-02-19T14:00:00.000Z","requestId":"req_3","costUSD":0.1,"message":{"id":"msg_3"}}`,
		`{"timestamp":"2026-02-19T14:01:00.000Z","requestId":"req_4","message":{"id":"msg_4","usage":{"input_tokens":5,"output_tokens":5}}}`,
		`{"timestamp":"2026-02-19T14:05:00.000Z","requestId":"req_5","costUSD":1.5,"message":{"id":"msg_5","usage":{"input_tokens":10,"output_tokens":5}}}`,
		``,
	}, "\n")

	src := SourceInfo{Path: "/data/projects/my-app/s1.jsonl", Project: "my-app", Session: "s1"}
	events := ParseReader(strings.NewReader(input), src, nil)

	// Only lines 1 and 6 are valid; bad JSON, empty timestamp, missing
	// usage, and missing cost are each dropped without affecting siblings.
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	e := events[0]
	if e.Cost != 0.25 {
		t.Errorf("Cost = %f, want 0.25", e.Cost)
	}
	if e.InputTokens != 100 {
		t.Errorf("InputTokens = %d, want 100", e.InputTokens)
	}
	if e.CacheCreationTokens != 200 {
		t.Errorf("CacheCreationTokens = %d, want 200", e.CacheCreationTokens)
	}
	if e.CacheReadTokens != 30 {
		t.Errorf("CacheReadTokens = %d, want 30", e.CacheReadTokens)
	}
	if e.Project != "my-app" {
		t.Errorf("Project = %q, want %q", e.Project, "my-app")
	}
	if e.Session != "s1" {
		t.Errorf("Session = %q, want %q", e.Session, "s1")
	}
	if e.SourcePath != src.Path {
		t.Errorf("SourcePath = %q, want %q", e.SourcePath, src.Path)
	}
	if e.MessageID != "msg_1" || e.RequestID != "req_1" {
		t.Errorf("ids = %q:%q, want msg_1:req_1", e.MessageID, e.RequestID)
	}

	if events[1].Cost != 1.5 {
		t.Errorf("second Cost = %f, want 1.5", events[1].Cost)
	}
}

func TestParseReader_Empty(t *testing.T) {
	events := ParseReader(strings.NewReader(""), SourceInfo{}, nil)
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestParseReader_ZeroCost(t *testing.T) {
	input := `{"timestamp":"2026-02-19T13:56:04.070Z","costUSD":0,"message":{"id":"m1","usage":{"input_tokens":100,"output_tokens":50}}}`
	events := ParseReader(strings.NewReader(input), SourceInfo{Project: "p", Session: "s"}, nil)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (zero cost is still numeric)", len(events))
	}
	if events[0].Cost != 0 {
		t.Errorf("Cost = %f, want 0", events[0].Cost)
	}
}

func TestParseReader_NonNumericCost(t *testing.T) {
	input := `{"timestamp":"2026-02-19T13:56:04.070Z","costUSD":"free","message":{"id":"m1","usage":{"input_tokens":1,"output_tokens":1}}}`
	events := ParseReader(strings.NewReader(input), SourceInfo{}, nil)
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 (string cost)", len(events))
	}
}
