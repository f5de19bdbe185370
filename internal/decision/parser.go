package decision

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseJSON decodes an LLM reply into dst. Handles raw JSON, markdown code
// fences and JSON embedded in surrounding prose.
func parseJSON(text string, dst any) error {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), dst); err == nil {
		return nil
	}

	// Fall back to the outermost JSON object in the text.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), dst); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse model response as JSON: %.200s", cleaned)
}
