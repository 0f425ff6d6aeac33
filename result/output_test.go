package result

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	res := &CrawlResult{
		Emails: map[string]EmailRecord{
			"jane.doe@example.com": {
				Email:     "jane.doe@example.com",
				SourceURL: "https://example.com/team?page=1&sort=asc",
				PageTitle: "Team",
				Name:      "Jane Doe",
				JobTitle:  "CEO",
			},
		},
		Phones:  []string{"5551234567"},
		Visited: []string{"https://example.com", "https://example.com/team"},
		Stats:   CrawlStats{State: StateCompleted, PagesVisited: 2},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded CrawlResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if got := decoded.Emails["jane.doe@example.com"].Name; got != "Jane Doe" {
		t.Errorf("decoded name = %q, want %q", got, "Jane Doe")
	}
	if decoded.Stats.State != StateCompleted {
		t.Errorf("decoded state = %q, want %q", decoded.Stats.State, StateCompleted)
	}

	// Verify field names are snake_case
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal to map: %v", err)
	}
	emails, ok := raw["emails"].(map[string]any)
	if !ok {
		t.Fatal("Expected 'emails' object in JSON output")
	}
	record, ok := emails["jane.doe@example.com"].(map[string]any)
	if !ok {
		t.Fatal("Expected email record keyed by address")
	}
	for _, key := range []string{"email", "source_url", "page_title", "name", "job_title"} {
		if _, ok := record[key]; !ok {
			t.Errorf("Expected %q field in email record", key)
		}
	}

	// Verify URLs are not HTML-escaped
	if !strings.Contains(buf.String(), "page=1&sort=asc") {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, &CrawlResult{}); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := raw["emails"].(map[string]any); !ok {
		t.Errorf("emails should encode as an empty object, got %v", raw["emails"])
	}
	if phones, ok := raw["phones"].([]any); !ok || len(phones) != 0 {
		t.Errorf("phones should encode as an empty array, got %v", raw["phones"])
	}
}

func TestSortedEmails(t *testing.T) {
	res := &CrawlResult{Emails: map[string]EmailRecord{
		"zed@example.com":  {Email: "zed@example.com"},
		"anna@example.com": {Email: "anna@example.com"},
		"mike@example.com": {Email: "mike@example.com"},
	}}

	got := res.SortedEmails()
	want := []string{"anna@example.com", "mike@example.com", "zed@example.com"}
	for i, rec := range got {
		if rec.Email != want[i] {
			t.Errorf("SortedEmails()[%d] = %q, want %q", i, rec.Email, want[i])
		}
	}
}
