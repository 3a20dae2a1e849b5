// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"fmt"
	"math/rand/v2"
)

// Difficulty selects the advice line attached to a writing prompt.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// genrePrompts maps the known genres to their example prompts.
var genrePrompts = map[string][]string{
	"科幻": {
		"2050年，人类首次发现外星文明，但它们以数字形式存在...",
		"时间机器被发明了，但只能回到过去5分钟...",
		"一个AI突然产生了自我意识，它决定...",
	},
	"奇幻": {
		"在一个魔法即将消失的世界，最后一位魔法师...",
		"普通人突然觉醒了超能力，但每次使用都会...",
		"通往异世界的门被打开了，但只有孩子能通过...",
	},
	"悬疑": {
		"侦探发现所有线索都指向自己...",
		"一名女子醒来，发现自己在一个完全陌生的房间...",
		"连续10天，每天中午都有人消失...",
	},
	"爱情": {
		"两个从未见面的陌生人发现他们做着相同的梦...",
		"一封50年前的信件寄到了，发信日期是明天...",
		"在一个只能用文字交流的世界，两人相爱了...",
	},
}

// genericPrompt is used for genres outside genrePrompts.
const genericPrompt = "创作一个独特的故事..."

// PromptsFor returns the candidate prompts for genre.
func PromptsFor(genre string) []string {
	if p, ok := genrePrompts[genre]; ok {
		return p
	}
	return []string{genericPrompt}
}

// Advice returns the difficulty advice line. Anything other than easy or
// medium is treated as hard.
func Advice(d Difficulty) string {
	switch d {
	case DifficultyEasy:
		return "这个提示适合初学者"
	case DifficultyMedium:
		return "这个提示需要一些创意"
	default:
		return "这个提示挑战性较大"
	}
}

// WritingPromptTool picks a random prompt for a genre. A nil Rand uses the
// global source.
type WritingPromptTool struct {
	Rand *rand.Rand
}

var writingPromptSpec = Specification{
	Name:        "writing_prompt_tool",
	Description: "根据指定的类型和难度生成创意写作提示",
	Inputs: InputSchema{
		Type: "object",
		Properties: map[string]ParameterObject{
			"genre": {Type: "string", Description: "故事类型：科幻、奇幻、悬疑、爱情等"},
			"difficulty": {
				Type:        "string",
				Description: "难度级别：easy, medium, hard",
				Enum:        []string{string(DifficultyEasy), string(DifficultyMedium), string(DifficultyHard)},
				Default:     string(DifficultyMedium),
			},
		},
		Required: []string{"genre"},
	},
}

// Prompt formats a prompt for genre and difficulty.
func (w *WritingPromptTool) Prompt(genre string, d Difficulty) string {
	candidates := PromptsFor(genre)
	return fmt.Sprintf(`
🎨 写作提示（%s - %s难度）：

%s

💡 创作建议：
- %s
- 考虑加入意外转折增加趣味性
- 注重人物情感和内心描写
`, genre, d, candidates[w.intN(len(candidates))], Advice(d))
}

func (w *WritingPromptTool) intN(n int) int {
	if w.Rand == nil {
		return rand.IntN(n)
	}
	return w.Rand.IntN(n)
}

func (w *WritingPromptTool) Specification() Specification {
	return writingPromptSpec
}

func (w *WritingPromptTool) Call(input Input) (string, error) {
	genre := stringArg(input, "genre", "")
	d := Difficulty(stringArg(input, "difficulty", string(DifficultyMedium)))
	return w.Prompt(genre, d), nil
}
