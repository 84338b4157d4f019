package catalog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type stubFetcher struct {
	rows  [][]string
	err   error
	calls int
}

func (f *stubFetcher) Rows(ctx context.Context, src Source) ([][]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func toolRows() [][]string {
	return [][]string{
		{"tool_id", "primary_domain", "subdomain", "top_5_tasks"},
		{"play::com.ubercab", "Logistics", "Ride hailing", "['book rides', 'track drivers']"},
		{"", "Marketing", "", ""},
	}
}

func TestLoaderCachesSuccessfulLoad(t *testing.T) {
	fetcher := &stubFetcher{rows: toolRows()}
	loader := NewLoader(fetcher, Sources{Tools: Source{Name: "tools"}}, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		records, err := loader.Tools(context.Background())
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
		if len(records) != 1 {
			t.Fatalf("load %d: got %d records, want 1", i, len(records))
		}
	}

	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestLoaderInvalidateForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{rows: toolRows()}
	loader := NewLoader(fetcher, Sources{Tools: Source{Name: "tools"}}, time.Minute, testLogger())

	if _, err := loader.Tools(context.Background()); err != nil {
		t.Fatal(err)
	}
	loader.Invalidate()
	if _, err := loader.Tools(context.Background()); err != nil {
		t.Fatal(err)
	}

	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestLoaderWrapsFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	loader := NewLoader(fetcher, Sources{Companies: Source{Name: "companies"}}, time.Minute, testLogger())

	_, err := loader.Companies(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}

	// Failures are not cached; the next call retries.
	fetcher.err = nil
	fetcher.rows = [][]string{}
	if _, err := loader.Companies(context.Background()); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestParseToolsTaskListFallback(t *testing.T) {
	rows := [][]string{
		{"tool_id", "primary_domain", "subdomain", "top_5_tasks"},
		{"play::com.example.tool", "Marketing", "SEO", "[broken json', 'keyword research]"},
	}

	records := parseTools(rows)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if len(records[0].TopTasks) != 2 {
		t.Errorf("tasks = %v, want 2 entries from comma fallback", records[0].TopTasks)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"play::com.ubercab", "Uber"},
		{"play::com.microsoft.office.word", "Microsoft Office Word"},
		{"play::com.example.android", "Example"},
		{"play::com.app", "play::com.app"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.id); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestParseAssistantsRequiresNameAndDescription(t *testing.T) {
	rows := [][]string{
		{"Ad Writer", "Writes ad copy from a brief", "studio", "4.6", "120", "10k+", "Marketing", "tone presets", "https://example.com/a"},
		{"Nameless", "", "x", "", "", "", "", "", ""},
		{"", "orphan description", "", "", "", "", "", "", ""},
	}

	records := parseAssistants(rows)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "Ad Writer" || rec.Category != "Marketing" {
		t.Errorf("record = %+v", rec)
	}
	if rec.SearchText == "" {
		t.Error("expected precomputed search text")
	}
}
