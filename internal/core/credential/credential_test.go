package credential

import (
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	passwords := []string{"pw123", "", "correct horse battery staple", "päss wörd ☃"}
	for _, pw := range passwords {
		record, err := Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if !Verify(pw, record) {
			t.Errorf("Verify(%q) = false for its own record", pw)
		}
		if Verify(pw+"x", record) {
			t.Errorf("Verify accepted wrong password for %q", pw)
		}
	}
}

func TestHashProducesUniqueRecords(t *testing.T) {
	a, err := Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash("same-password")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical; salt is not random")
	}
	if !Verify("same-password", a) || !Verify("same-password", b) {
		t.Fatal("both records should verify")
	}
}

func TestRecordFormat(t *testing.T) {
	record, err := Hash("pw")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(record, "$")
	if len(parts) != 3 {
		t.Fatalf("record has %d fields, want 3: %q", len(parts), record)
	}
	if parts[1] != "100000" {
		t.Errorf("iteration field = %q, want 100000", parts[1])
	}
}

func TestVerifyTunedIterations(t *testing.T) {
	record, err := HashWithIterations("pw", 150000)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(record, "$150000$") {
		t.Errorf("record does not carry the tuned iteration count: %q", record)
	}
	if !Verify("pw", record) {
		t.Error("record with tuned iterations should verify")
	}
}

func TestVerifyMalformedRecords(t *testing.T) {
	cases := []struct {
		name   string
		record string
	}{
		{"empty", ""},
		{"one field", "abc"},
		{"two fields", "abc$def"},
		{"four fields", "a$b$c$d"},
		{"bad salt b64", "!!!$100000$YWJj"},
		{"bad key b64", "YWJj$100000$!!!"},
		{"non-numeric iterations", "YWJj$lots$YWJj"},
		{"zero iterations", "YWJj$0$YWJj"},
		{"negative iterations", "YWJj$-5$YWJj"},
		{"empty key", "YWJj$100000$"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if Verify("pw", tc.record) {
				t.Errorf("Verify accepted malformed record %q", tc.record)
			}
		})
	}
}

func TestHashRejectsInvalidIterations(t *testing.T) {
	if _, err := HashWithIterations("pw", 0); err == nil {
		t.Error("expected error for zero iterations")
	}
}
