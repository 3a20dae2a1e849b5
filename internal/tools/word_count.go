// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// WordCountTool reports character, word, paragraph and line counts.
type WordCountTool struct{}

var wordCountSpec = Specification{
	Name:        "word_count_tool",
	Description: "统计文本的字数、段落数和行数",
	Inputs: InputSchema{
		Type: "object",
		Properties: map[string]ParameterObject{
			"text": {Type: "string", Description: "要统计字数的文本"},
		},
		Required: []string{"text"},
	},
}

// TextStats holds the metrics reported by WordCountTool. All counts are in
// Unicode code points.
type TextStats struct {
	// Characters is the length of the text with ASCII spaces removed.
	Characters int

	// Words is the total length of the original text. It counts characters,
	// not whitespace-delimited words; callers rely on the existing report.
	Words int

	// Paragraphs is the number of blank-line separated blocks with content.
	Paragraphs int

	// Lines is the number of lines with non-whitespace content.
	Lines int
}

// CountText computes TextStats for text. The empty string yields all zeros.
func CountText(text string) TextStats {
	return TextStats{
		Characters: utf8.RuneCountInString(strings.ReplaceAll(text, " ", "")),
		Words:      utf8.RuneCountInString(text),
		Paragraphs: countNonBlank(strings.Split(text, "\n\n")),
		Lines:      countNonBlank(strings.Split(text, "\n")),
	}
}

func countNonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func (WordCountTool) Specification() Specification {
	return wordCountSpec
}

func (WordCountTool) Call(input Input) (string, error) {
	s := CountText(stringArg(input, "text", ""))
	return fmt.Sprintf(`
📊 文本统计结果：
- 字符数：%d
- 词数：%d
- 段落数：%d
- 行数：%d
`, s.Characters, s.Words, s.Paragraphs, s.Lines), nil
}
