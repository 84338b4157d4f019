package catalog

import "testing"

func TestClassifyRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want rowType
	}{
		{
			name: "empty row",
			row:  []string{"", "", ""},
			want: rowEmpty,
		},
		{
			name: "nil row",
			row:  nil,
			want: rowEmpty,
		},
		{
			name: "section label alone",
			row:  []string{"LEGAL", "", "", ""},
			want: rowSectionLabel,
		},
		{
			name: "section label with one extra cell",
			row:  []string{"MARKETING", "Q3", "", ""},
			want: rowSectionLabel,
		},
		{
			name: "section label substring match",
			row:  []string{"LEGAL TECH", "", ""},
			want: rowSectionLabel,
		},
		{
			name: "label text in a full row is not a section",
			row:  []string{"LEGAL", "USA", "Contract review", "AI-powered contract analysis", "Fast turnaround"},
			want: rowDataRecord,
		},
		{
			name: "column header",
			row:  []string{"Startup name", "Country", "Basic problem", "Core product description", "Differentiator"},
			want: rowColumnHeader,
		},
		{
			name: "column header needs three indicators",
			row:  []string{"Startup name", "Country", "Founded", "CEO"},
			want: rowUnknown,
		},
		{
			name: "data record",
			row:  []string{"Acme AI", "Germany", "Slow invoice processing", "Automated invoice capture", ""},
			want: rowDataRecord,
		},
		{
			name: "data record needs two substantial cells",
			row:  []string{"Acme AI", "", "", "", ""},
			want: rowUnknown,
		},
		{
			name: "single character first cell",
			row:  []string{"x", "something longer here", "and more text"},
			want: rowUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyRow(tt.row); got != tt.want {
				t.Errorf("classifyRow(%v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestParseCompaniesCarriesSectionAndHeaders(t *testing.T) {
	rows := [][]string{
		{"MARKETING", "", "", "", ""},
		{"Startup name", "Country", "Basic problem", "Core product description", "Differentiator"},
		{"AdGenie", "USA", "Ad spend is wasted on broad targeting", "AI audience targeting for small shops", "Self-serve setup"},
		{"LEGAL", "", "", "", ""},
		{"ClauseBot", "UK", "Contract review takes days", "Automated clause extraction and risk flags", "Lawyer-trained models"},
	}

	records := parseCompanies(rows)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if records[0].Name != "AdGenie" || records[0].Domain != "MARKETING" {
		t.Errorf("first record = %q in %q, want AdGenie in MARKETING", records[0].Name, records[0].Domain)
	}
	if records[1].Name != "ClauseBot" || records[1].Domain != "LEGAL" {
		t.Errorf("second record = %q in %q, want ClauseBot in LEGAL", records[1].Name, records[1].Domain)
	}
	if records[1].SourceRow != 5 {
		t.Errorf("second record row = %d, want 5", records[1].SourceRow)
	}
	if records[0].SearchText == "" {
		t.Error("expected precomputed search text")
	}
}

func TestParseCompaniesSkipsDataBeforeHeaders(t *testing.T) {
	rows := [][]string{
		{"Orphan Co", "USA", "Some problem here", "Some description here", ""},
		{"Startup name", "Country", "Basic problem", "Core product description", "Differentiator"},
		{"Known Co", "USA", "Another problem text", "Another description text", ""},
	}

	records := parseCompanies(rows)
	if len(records) != 1 || records[0].Name != "Known Co" {
		t.Fatalf("expected only Known Co, got %+v", records)
	}
}
