package redact

import (
	"strings"
	"testing"
)

func TestRedactsPhoneAndEmail(t *testing.T) {
	text := "Contact John Doe at +91-9876543210, email: john@example.com"
	res := Redact(DefaultConfig(), text)

	if !strings.Contains(res.RedactedText, "[PHONE_1_") {
		t.Errorf("expected phone placeholder, got %q", res.RedactedText)
	}
	if !strings.Contains(res.RedactedText, "[EMAIL_1_") {
		t.Errorf("expected email placeholder, got %q", res.RedactedText)
	}
}

func TestLegalEntitiesNotRedacted(t *testing.T) {
	text := "Case: Social Media Platform v. State Government\nLegal Issues: whether the platform is liable."
	res := Redact(DefaultConfig(), text)
	if len(res.Detections) != 0 {
		t.Errorf("expected zero redactions for legal boilerplate, got %v", res.Detections)
	}
	if res.RedactedText != text {
		t.Errorf("expected text unchanged, got %q", res.RedactedText)
	}
}

func TestIdempotence(t *testing.T) {
	text := "Contact John Doe at +91-9876543210, email: john@example.com"
	once := Redact(DefaultConfig(), text)
	twice := Redact(DefaultConfig(), once.RedactedText)
	if once.RedactedText != twice.RedactedText {
		t.Errorf("redaction not idempotent:\n%q\n%q", once.RedactedText, twice.RedactedText)
	}
}

func TestStability(t *testing.T) {
	text := "Contact John Doe at +91-9876543210, email: john@example.com"
	a := Redact(DefaultConfig(), text)
	b := Redact(DefaultConfig(), text)
	if a.RedactedText != b.RedactedText {
		t.Errorf("expected deterministic placeholders across runs, got %q vs %q", a.RedactedText, b.RedactedText)
	}
}

func TestSamePlaceholderForRepeatedValue(t *testing.T) {
	text := "Email john@example.com. Again: john@example.com."
	res := Redact(DefaultConfig(), text)
	first := strings.Index(res.RedactedText, "[EMAIL_1_")
	if first < 0 {
		t.Fatalf("expected first email placeholder, got %q", res.RedactedText)
	}
	// Same substring across a single run must map to the same placeholder.
	placeholder := res.RedactedText[first : strings.Index(res.RedactedText[first:], "]")+first+1]
	if strings.Count(res.RedactedText, placeholder) != 2 {
		t.Errorf("expected same placeholder reused for repeated value, got %q", res.RedactedText)
	}
}

func TestAadhaarAndPAN(t *testing.T) {
	text := "Aadhaar: 1234 5678 9012, PAN: ABCDE1234F"
	res := Redact(DefaultConfig(), text)
	kinds := map[Kind]bool{}
	for _, d := range res.Detections {
		kinds[d.Kind] = true
	}
	if !kinds[KindAadhaar] {
		t.Error("expected Aadhaar detection")
	}
	if !kinds[KindPAN] {
		t.Error("expected PAN detection")
	}
}
