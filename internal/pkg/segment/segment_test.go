package segment

import (
	"reflect"
	"testing"
)

func TestKeywordsFallbackSplit(t *testing.T) {
	// 空分词器走空格切分路径
	e := &Extractor{}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"plain words", "daily quota limits", []string{"daily", "quota", "limits"}},
		{"dedup keeps order", "quota usage quota", []string{"quota", "usage"}},
		{"drops punctuation tokens", "what ?? is !! quota", []string{"what", "is", "quota"}},
		{"drops single latin chars", "a quota b limit", []string{"quota", "limit"}},
		{"empty query", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Keywords(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Keywords(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestKeywordsNeverNil(t *testing.T) {
	e := NewExtractor()
	if got := e.Keywords(""); got == nil {
		t.Fatal("expected empty slice, not nil")
	}
}

func TestNewExtractorUsable(t *testing.T) {
	// 构造函数返回的提取器必须能直接提取关键词
	e := NewExtractor()
	got := e.Keywords("daily quota limits")
	if len(got) == 0 {
		t.Fatal("expected keywords from a fresh extractor, got none")
	}
	found := false
	for _, w := range got {
		if w == "quota" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected %q in keywords, got %v", "quota", got)
	}
}
