package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRunRecord_JSONOmitsEmptyFailureFields(t *testing.T) {
	rec := RunRecord{
		ID:         RunID("R1"),
		Project:    "shop",
		Endpoint:   "https://example.com/health",
		Success:    true,
		StatusCode: 200,
		LatencyMS:  42,
		StartedAt:  time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "error_kind") || strings.Contains(s, "message") {
		t.Fatalf("expected failure fields omitted on success, got %s", s)
	}
	if !strings.Contains(s, `"status_code":200`) {
		t.Fatalf("expected status_code in %s", s)
	}
}

func TestRunRecord_FailureKeepsKind(t *testing.T) {
	rec := RunRecord{ErrorKind: ErrorKindRequest, Message: "dial tcp: connection refused"}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got RunRecord
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ErrorKind != ErrorKindRequest || got.Success {
		t.Fatalf("unexpected record after decode: %+v", got)
	}
}
