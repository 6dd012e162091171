package parser

import "testing"

func TestExtractCitation(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"scr only", "IN THE SUPREME COURT OF INDIA\n[2025] 9 S.C.R. 585\nSome Party v. Other Party", "[2025] 9 S.C.R. 585"},
		{"insc only", "2024 INSC 112\nA v. B", "2024 INSC 112"},
		{"both joined", "[2025] 9 S.C.R. 585 2024 INSC 112\nA v. B", "[2025] 9 S.C.R. 585:2024 INSC 112"},
		{"none", "No citation here at all", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := extractCitation(c.text)
			if got != c.want {
				t.Errorf("extractCitation(%q) = %q, want %q", c.text, got, c.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	text := "IN THE SUPREME COURT OF INDIA\nState of Maharashtra v. Ramesh Kumar\nJUDGMENT"
	got := extractTitle(text)
	want := "State of Maharashtra v. Ramesh Kumar"
	if got != want {
		t.Errorf("extractTitle() = %q, want %q", got, want)
	}
}

func TestExtractCaseNumber(t *testing.T) {
	text := "Criminal Appeal No. 1234 of 2023\nState v. X"
	got := extractCaseNumber(text)
	want := "Criminal Appeal No. 1234 of 2023"
	if got != want {
		t.Errorf("extractCaseNumber() = %q, want %q", got, want)
	}
}

func TestExtractMetadataMissingFieldsAreEmpty(t *testing.T) {
	m := extractMetadata("This page has no identifiable citation, title, or case number.")
	if m.Citation != "" || m.CaseTitle != "" || m.CaseNumber != "" {
		t.Errorf("expected all-empty metadata, got %+v", m)
	}
}
