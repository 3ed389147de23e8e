package segment

import (
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// Extractor 查询关键词提取器
// 基于 gse 分词，中英文混合查询都能切出可用于文本检索的关键词
type Extractor struct {
	segmenter *gse.Segmenter // gse 分词器，初始化失败时降级为空格切分
}

// NewExtractor 创建关键词提取器
func NewExtractor() *Extractor {
	var seg *gse.Segmenter
	if s, err := gse.New(); err == nil {
		seg = &s
	}
	return &Extractor{segmenter: seg}
}

// Keywords 从查询文本中提取检索关键词
// 过滤单字符词和纯标点，保序去重
func (e *Extractor) Keywords(query string) []string {
	var words []string
	if e.segmenter != nil {
		words = e.segmenter.Cut(query, false)
	} else {
		words = strings.Fields(query)
	}

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || !hasLetterOrDigit(w) {
			continue
		}
		// 单个拉丁字符没有检索价值；单个CJK字符保留
		if len([]rune(w)) == 1 && w[0] < 0x80 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
