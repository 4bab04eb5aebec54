package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON 从模型输出中取出 JSON 对象并解码到 v
// 兼容 ```json 代码块和前后夹杂的说明文字
func ExtractJSON(text string, v any) error {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	if err := json.Unmarshal([]byte(clean), v); err == nil {
		return nil
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no json object found: %w", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(clean[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
