package script

import (
	"fmt"
	"strings"
	"time"
)

func languageInstruction(lang string) string {
	if lang == "en" {
		return "Write the narration script in English."
	}
	return "Write the narration script in Korean."
}

// BuildPrompt renders the text-model prompt for req.
func BuildPrompt(req Request, sourceContext, sourceType string, now time.Time) string {
	var b strings.Builder
	today := now.Format("2006-01-02")
	shorts := req.Mode.Shorts() || strings.Contains(strings.ToLower(req.Topic), "shorts")

	if !req.Mode.News() {
		fmt.Fprintf(&b, "Topic: %q\nCreate a story script.\n", req.Topic)
		if shorts {
			b.WriteString("Shorts format: under 50 seconds, at least 8 scenes.\n")
		}
		fmt.Fprintf(&b, "Language: %s\n", languageInstruction(req.Language))
		b.WriteString(outputContract)
		return b.String()
	}

	format := "Video script (about 3-4 minutes). Structure into 15-25 scenes."
	if shorts {
		format = "Shorts script (45-60 seconds). Structure into 8-12 short scenes."
	}
	b.WriteString("You are the lead editor of a daily news channel.\n")
	fmt.Fprintf(&b, "Task: write a %s\nBased on: %s\nDate: %s\n\n", format, sourceType, today)
	fmt.Fprintf(&b, "[Input Data]\n%s\n\n", sourceContext)
	b.WriteString("[Constraints]\n")
	b.WriteString("1. Focus only on the must-know events.\n")
	b.WriteString("2. Each scene's narration is at most 2 sentences.\n")
	fmt.Fprintf(&b, "3. %s\n", languageInstruction(req.Language))
	b.WriteString("4. No emojis in narration. Wrap KEYWORDS in asterisks.\n")
	b.WriteString("5. Scene 1 is a short welcome hook. The last scene is a sign-off asking viewers to like and subscribe.\n\n")
	b.WriteString(outputContract)
	return b.String()
}

const outputContract = `Output strictly valid JSON:
{"title": "...", "description": "...", "scenes": [{"image_prompt": "...", "narration": "..."}]}
`
