package util

import (
	"errors"
	"testing"
	"time"
)

func TestGetFrontMatter(t *testing.T) {
	md := []byte("---\r\ntitle: Hello\r\nslug: hello\r\ntags: [go, web]\r\ndate: 2024-03-01T00:00:00Z\r\n---\r\n\r\n# Body\r\n")

	fm, body, err := GetFrontMatter(md)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fm.Title != "Hello" || fm.Slug != "hello" {
		t.Errorf("Unexpected front matter %+v", fm)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" || fm.Tags[1] != "web" {
		t.Errorf("Unexpected tags %v", fm.Tags)
	}
	if !fm.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date %v", fm.Date)
	}
	if string(body) != "# Body\n" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestGetFrontMatterErrors(t *testing.T) {
	testCases := []struct {
		name     string
		md       string
		noFM     bool
		wantBody string
	}{
		{name: "plain markdown", md: "# Just body\n", noFM: true, wantBody: "# Just body\n"},
		{name: "unclosed block", md: "---\ntitle: x\n", noFM: true, wantBody: "---\ntitle: x\n"},
		{name: "invalid yaml", md: "---\ntitle: [\n---\nbody"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, err := GetFrontMatter([]byte(tc.md))
			if err == nil || fm != nil {
				t.Fatalf("Expected an error, got %+v", fm)
			}
			if errors.Is(err, ErrNoFrontMatter) != tc.noFM {
				t.Errorf("Unexpected error %v", err)
			}
			if tc.wantBody != "" && string(body) != tc.wantBody {
				t.Errorf("Expected body %q, got %q", tc.wantBody, body)
			}
		})
	}
}
