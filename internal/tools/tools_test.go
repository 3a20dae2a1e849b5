// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want TextStats
	}{
		{
			name: "empty string",
			text: "",
			want: TextStats{},
		},
		{
			name: "whitespace only",
			text: "  \n\n \t\n",
			want: TextStats{Characters: 4, Words: 7},
		},
		{
			name: "single line",
			text: "hello world",
			want: TextStats{Characters: 10, Words: 11, Paragraphs: 1, Lines: 1},
		},
		{
			name: "two paragraphs",
			text: "first line\nsecond line\n\nthird line",
			want: TextStats{Characters: 31, Words: 34, Paragraphs: 2, Lines: 3},
		},
		{
			name: "extra blank lines do not add paragraphs",
			text: "a\n\n\n\nb",
			want: TextStats{Characters: 6, Words: 6, Paragraphs: 2, Lines: 2},
		},
		{
			name: "counts code points not bytes",
			text: "时间 旅行",
			want: TextStats{Characters: 4, Words: 5, Paragraphs: 1, Lines: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountText(tt.text))
		})
	}
}

func TestCountTextCharactersExcludeSpaces(t *testing.T) {
	for _, text := range []string{"", " ", "a b c", "  leading", "时 间 旅 行\n\n遗憾", "tabs\tare kept"} {
		s := CountText(text)
		assert.LessOrEqual(t, s.Characters, s.Words, text)
		assert.Equal(t, s.Words-strings.Count(text, " "), s.Characters, text)
	}
}

func TestCountTextParagraphsWithoutSeparators(t *testing.T) {
	assert.Equal(t, 1, CountText("one\ntwo\nthree").Paragraphs)
	assert.Equal(t, 0, CountText("   \n  ").Paragraphs)
}

func TestWordCountToolReport(t *testing.T) {
	out, err := WordCountTool{}.Call(Input{"text": "a b\n\nc"})
	require.NoError(t, err)
	assert.Contains(t, out, "- 字符数：5")
	assert.Contains(t, out, "- 词数：6")
	assert.Contains(t, out, "- 段落数：2")
	assert.Contains(t, out, "- 行数：2")
}

func TestDensityOf(t *testing.T) {
	tests := []struct {
		n    int
		want Density
	}{
		{0, DensityLow},
		{200, DensityLow},
		{201, DensityMedium},
		{500, DensityMedium},
		{501, DensityHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DensityOf(strings.Repeat("x", tt.n)), "length %d", tt.n)
	}
	// 201 CJK characters are 603 bytes but still medium.
	assert.Equal(t, DensityMedium, DensityOf(strings.Repeat("字", 201)))
}

func TestAverageSentenceLength(t *testing.T) {
	assert.InDelta(t, 1.0, AverageSentenceLength(""), 1e-9)
	assert.InDelta(t, 3.0, AverageSentenceLength("a. b. c"), 1e-9)
	assert.InDelta(t, 1.0, AverageSentenceLength("a. b\n\nc"), 1e-9)
	assert.InDelta(t, 1.5, AverageSentenceLength("a. b. c\n\nd"), 1e-9)
}

func TestAnalyzeStyle(t *testing.T) {
	long := strings.Repeat("描写。", 200)

	tests := []struct {
		name  string
		text  string
		focus Focus
		want  []string
	}{
		{"overall short", "short.", FocusOverall, []string{"整体风格分析", "- 平均句长：2.0 句/段落", "- 文本密度：低", "- 风格特点：简洁明快"}},
		{"overall medium", strings.Repeat("y", 300), FocusOverall, []string{"- 文本密度：中等", "- 风格特点：简洁明快"}},
		{"overall long", long, FocusOverall, []string{"- 文本密度：高", "- 风格特点：描写细腻"}},
		{"unknown focus falls back", "short.", Focus("rhythm"), []string{"整体风格分析"}},
		{"empty focus falls back", "short.", Focus(""), []string{"整体风格分析"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeStyle(tt.text, tt.focus)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestAnalyzeStylePlaceholdersIgnoreText(t *testing.T) {
	for _, text := range []string{"", "short.", strings.Repeat("z", 1000)} {
		assert.Equal(t, tonePlaceholder, AnalyzeStyle(text, FocusTone))
		assert.Equal(t, structurePlaceholder, AnalyzeStyle(text, FocusStructure))
		assert.Equal(t, vocabularyPlaceholder, AnalyzeStyle(text, FocusVocabulary))
	}
}

func TestWritingPromptBelongsToGenre(t *testing.T) {
	w := &WritingPromptTool{Rand: rand.New(rand.NewPCG(1, 2))}

	for genre, prompts := range genrePrompts {
		for i := 0; i < 20; i++ {
			out := w.Prompt(genre, DifficultyMedium)
			found := false
			for _, p := range prompts {
				if strings.Contains(out, p) {
					found = true
					break
				}
			}
			assert.True(t, found, "prompt for %s not from its list: %s", genre, out)
			assert.Contains(t, out, "（"+genre+" - medium难度）")
		}
	}
}

func TestWritingPromptUnknownGenre(t *testing.T) {
	w := &WritingPromptTool{}
	out := w.Prompt("西部", DifficultyEasy)
	assert.Contains(t, out, genericPrompt)
	assert.Equal(t, []string{genericPrompt}, PromptsFor("西部"))
}

func TestAdvice(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want string
	}{
		{DifficultyEasy, "这个提示适合初学者"},
		{DifficultyMedium, "这个提示需要一些创意"},
		{DifficultyHard, "这个提示挑战性较大"},
		{Difficulty("extreme"), "这个提示挑战性较大"},
	}
	for _, tt := range tests {
		t.Run(string(tt.d), func(t *testing.T) {
			assert.Equal(t, tt.want, Advice(tt.d))
			out := (&WritingPromptTool{}).Prompt("科幻", tt.d)
			assert.Contains(t, out, "- "+tt.want+"\n")
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		spec        Specification
		input       Input
		want        Input
		wantMissing []string
		wantInvalid []string
	}{
		{
			name:  "applies default focus",
			spec:  styleAnalysisSpec,
			input: Input{"text": "abc"},
			want:  Input{"text": "abc", "focus": "overall"},
		},
		{
			name:  "keeps explicit difficulty",
			spec:  writingPromptSpec,
			input: Input{"genre": "悬疑", "difficulty": "hard"},
			want:  Input{"genre": "悬疑", "difficulty": "hard"},
		},
		{
			name:        "missing required text",
			spec:        wordCountSpec,
			input:       Input{},
			wantMissing: []string{"text"},
		},
		{
			name:        "wrong type",
			spec:        wordCountSpec,
			input:       Input{"text": 42},
			wantInvalid: []string{"text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.spec, tt.input)
			if tt.wantMissing != nil || tt.wantInvalid != nil {
				var verr ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantMissing, verr.FieldsMissing)
				assert.Equal(t, tt.wantInvalid, verr.FieldsInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{"style_analysis_tool", "word_count_tool", "writing_prompt_tool"}, r.Names())

	out, err := r.Call("style_analysis_tool", Input{"text": "x", "focus": "tone"})
	require.NoError(t, err)
	assert.Equal(t, tonePlaceholder, out)

	_, err = r.Call("nope", Input{})
	assert.True(t, errors.Is(err, ErrUnknownTool))

	_, err = r.Call("word_count_tool", Input{})
	var verr ValidationError
	assert.ErrorAs(t, err, &verr)

	resolved, err := r.Resolve([]string{"word_count_tool", "style_analysis_tool"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "word_count_tool", resolved[0].Specification().Name)

	_, err = r.Resolve([]string{"word_count_tool", "missing"})
	assert.ErrorIs(t, err, ErrUnknownTool)
}
