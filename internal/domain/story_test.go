package domain

import (
	"errors"
	"testing"
)

func TestParseStoryShapes(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		title string
		n     int
	}{
		{"object", `{"title":"T","scenes":[{"image_prompt":"a","narration":"x"},{"image_prompt":"b"}]}`, "T", 2},
		{"wrapped list", `[{"title":"W","scenes":[{"image_prompt":"a"}]},{"scenes":[]}]`, "W", 1},
		{"bare list", `[{"image_prompt":"a"},{"image_prompt":"b"},{"image_prompt":"c"}]`, "", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			story, err := ParseStory([]byte(tc.doc))
			if err != nil {
				t.Fatalf("ParseStory: %v", err)
			}
			if story.Title != tc.title || len(story.Scenes) != tc.n {
				t.Fatalf("got title %q with %d scenes", story.Title, len(story.Scenes))
			}
			for i, s := range story.Scenes {
				if s.Index != i+1 {
					t.Fatalf("scene %d has index %d", i, s.Index)
				}
			}
		})
	}
}

func TestParseStoryPromptFallback(t *testing.T) {
	story, err := ParseStory([]byte(`{"scenes":[{"prompt":" city at night ","narration":"n"}]}`))
	if err != nil {
		t.Fatalf("ParseStory: %v", err)
	}
	if story.Scenes[0].Prompt != "city at night" || story.Scenes[0].Narration != "n" {
		t.Fatalf("unexpected scene %#v", story.Scenes[0])
	}
}

func TestParseStoryRejects(t *testing.T) {
	for _, doc := range []string{"", "   ", `"text"`, `{"title":"no scenes"}`, `[]`, `{bad json`, `["a","b"]`} {
		if _, err := ParseStory([]byte(doc)); !errors.Is(err, ErrInvalidStory) {
			t.Fatalf("ParseStory(%q) err = %v, want ErrInvalidStory", doc, err)
		}
	}
}
