package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Scene is one illustrated, narrated beat of a story. Index is 1-based and drives
// output file names (image_<index>.png, audio_<index>.wav).
type Scene struct {
	Index     int    `json:"index"`
	Prompt    string `json:"image_prompt"`
	Narration string `json:"narration"`
}

// Story is the typed result of ingesting a script document.
type Story struct {
	Title  string  `json:"title,omitempty"`
	Scenes []Scene `json:"scenes"`
}

type rawScene struct {
	ImagePrompt string `json:"image_prompt"`
	Prompt      string `json:"prompt"`
	Narration   string `json:"narration"`
}

type rawStory struct {
	Title  string          `json:"title"`
	Scenes json.RawMessage `json:"scenes"`
}

// ParseStory normalizes the script document into a Story. Accepted shapes, in priority order:
//
//  1. an object with a "scenes" array
//  2. an array whose first element is an object with a "scenes" array
//  3. a bare array of scene objects
func ParseStory(data []byte) (Story, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Story{}, fmt.Errorf("%w: empty document", ErrInvalidStory)
	}

	switch trimmed[0] {
	case '{':
		var doc rawStory
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Story{}, fmt.Errorf("%w: %v", ErrInvalidStory, err)
		}
		if len(doc.Scenes) == 0 {
			return Story{}, fmt.Errorf("%w: object has no scenes", ErrInvalidStory)
		}
		return buildStory(doc.Title, doc.Scenes)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Story{}, fmt.Errorf("%w: %v", ErrInvalidStory, err)
		}
		if len(items) == 0 {
			return Story{}, fmt.Errorf("%w: empty list", ErrInvalidStory)
		}
		var first rawStory
		if err := json.Unmarshal(items[0], &first); err == nil && len(first.Scenes) > 0 {
			return buildStory(first.Title, first.Scenes)
		}
		return buildStory("", trimmed)
	default:
		return Story{}, fmt.Errorf("%w: unexpected document shape", ErrInvalidStory)
	}
}

func buildStory(title string, scenesJSON json.RawMessage) (Story, error) {
	var raws []rawScene
	if err := json.Unmarshal(scenesJSON, &raws); err != nil {
		return Story{}, fmt.Errorf("%w: scenes: %v", ErrInvalidStory, err)
	}
	story := Story{Title: strings.TrimSpace(title), Scenes: make([]Scene, 0, len(raws))}
	for i, r := range raws {
		prompt := strings.TrimSpace(r.ImagePrompt)
		if prompt == "" {
			prompt = strings.TrimSpace(r.Prompt)
		}
		story.Scenes = append(story.Scenes, Scene{
			Index:     i + 1,
			Prompt:    prompt,
			Narration: r.Narration,
		})
	}
	return story, nil
}
