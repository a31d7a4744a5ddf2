package blob

import (
	"strings"
	"testing"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("crd_1", "att_9", "Q3 Report (final).pdf")
	if !strings.HasPrefix(key, "attachments/crd_1/att_9_") {
		t.Fatalf("key = %q, want card-scoped prefix", key)
	}
	if strings.ContainsAny(key, "() ") {
		t.Fatalf("key = %q, want sanitized filename", key)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"my file!.txt", "my_file_.txt"},
		{"", "file"},
		{"///", "file"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
