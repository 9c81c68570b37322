package parser

import (
	"strings"
	"unicode"
)

// Normalize 清洗PDF提取的原始文本。
// 连续空白（含换行）折叠为单个空格，移除7位ASCII之外的字符，并去掉首尾空白。
// 纯函数，对任意输入（含空串）都不会失败，且满足幂等: Normalize(Normalize(x)) == Normalize(x)。
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSpace := false
	for _, r := range raw {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	return b.String()
}
