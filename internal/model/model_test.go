package model

import (
	"encoding/json"
	"testing"
)

func TestPostFieldsCopiesTags(t *testing.T) {
	p := &Post{ID: "p1", Title: "Hello", Slug: "hello", Tags: []string{"go", "web"}}

	fields := p.Fields()
	fields.Tags[0] = "changed"

	if p.Tags[0] != "go" {
		t.Errorf("Expected post tags to be unaffected, got %v", p.Tags)
	}
	if fields.Title != "Hello" || fields.Slug != "hello" {
		t.Errorf("Unexpected fields %+v", fields)
	}
}

func TestHasImage(t *testing.T) {
	testCases := []struct {
		name     string
		imageURL *string
		expected bool
	}{
		{name: "nil", imageURL: nil, expected: false},
		{name: "empty", imageURL: new(string), expected: false},
		{name: "set", imageURL: StringPtr("https://cdn/x.jpg"), expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Post{ImageURL: tc.imageURL}
			if p.HasImage() != tc.expected {
				t.Errorf("Expected HasImage %v", tc.expected)
			}
		})
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("Expected nil for empty string")
	}
	if p := StringPtr("a"); p == nil || *p != "a" {
		t.Errorf("Expected pointer to 'a', got %v", p)
	}
}

func TestPostJSONNullImage(t *testing.T) {
	data, err := json.Marshal(&Post{ID: "p1", Title: "t", Slug: "t"})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	v, ok := decoded["image_url"]
	if !ok || v != nil {
		t.Errorf("Expected image_url to be present and null, got %v (present=%v)", v, ok)
	}
	if _, ok := decoded["ContentHash"]; ok {
		t.Error("Expected content hash to stay out of JSON")
	}
}
