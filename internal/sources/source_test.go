package sources

import (
	"testing"
)

func TestItemID(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "regular URL", url: "https://example.com/post/123"},
		{name: "query string URL", url: "https://example.com/post?id=123&ref=hn"},
		{name: "empty URL", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ItemID(tt.url)
			if len(id) != 12 {
				t.Errorf("ItemID(%q) length = %d, want 12", tt.url, len(id))
			}
			for _, c := range id {
				if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
					t.Errorf("ItemID(%q) = %q contains non-hex character %q", tt.url, id, c)
				}
			}
			if again := ItemID(tt.url); again != id {
				t.Errorf("ItemID(%q) not deterministic: %q != %q", tt.url, id, again)
			}
		})
	}
}

func TestItemIDDistinct(t *testing.T) {
	a := ItemID("https://example.com/a")
	b := ItemID("https://example.com/b")
	if a == b {
		t.Errorf("distinct URLs produced the same identity %q", a)
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher([]string{"LLM", "machine learning", "Kubernetes"})

	tests := []struct {
		name    string
		title   string
		content string
		want    bool
	}{
		{name: "keyword in title", title: "New LLM benchmark released", content: "", want: true},
		{name: "keyword in content", title: "Weekly roundup", content: "advances in machine learning", want: true},
		{name: "case insensitive", title: "KUBERNETES operators explained", content: "", want: true},
		{name: "keyword case differs from vocabulary", title: "llm inference tricks", content: "", want: true},
		{name: "no match", title: "Cooking with cast iron", content: "recipes and tips", want: false},
		{name: "empty inputs", title: "", content: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.title, tt.content); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestMatcherEmptyVocabulary(t *testing.T) {
	m := NewMatcher(nil)
	if m.Match("anything at all", "body") {
		t.Error("empty vocabulary matched; want no match")
	}
}
