package image

import (
	"strings"

	"videofactory/internal/domain"
)

// BuildPrompt turns a scene prompt into the generation prompt for mode. News
// runs ask for a realistic photo, the rest for a cinematic illustration.
func BuildPrompt(mode domain.Mode, scenePrompt string) string {
	scenePrompt = strings.TrimSpace(scenePrompt)
	if scenePrompt == "" {
		return ""
	}
	if mode.News() {
		return "News photo of " + scenePrompt + ", realistic, 4k"
	}
	return scenePrompt + ", cinematic lighting, high quality"
}
