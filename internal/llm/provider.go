package llm

import (
	"context"
)

// Completer 对话补全提供方接口。
// 提示词进、文本出，调用方不对补全内容做任何结构化分支。
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
