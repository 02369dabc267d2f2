package domain

import (
	"fmt"
	"strings"
)

// Mode selects the aspect ratio and news-specific behavior of a run.
type Mode string

const (
	ModeVideo         Mode = "video"
	ModeShorts        Mode = "shorts"
	ModeNewsVideo     Mode = "news_video"
	ModeNewsShorts    Mode = "news_shorts"
	ModeURLNewsShorts Mode = "url_news_shorts"
)

// ParseMode validates a mode flag value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVideo, ModeShorts, ModeNewsVideo, ModeNewsShorts, ModeURLNewsShorts:
		return m, nil
	case "":
		return ModeVideo, nil
	default:
		return "", fmt.Errorf("unsupported mode %q", s)
	}
}

func (m Mode) Shorts() bool { return strings.Contains(string(m), "shorts") }

func (m Mode) News() bool { return strings.Contains(string(m), "news") }

// UsesArticleCache reports whether scene images may come from a scraped article.
func (m Mode) UsesArticleCache() bool { return m == ModeURLNewsShorts }

// UsesBumpers reports whether intro/outro scenes may be replaced by pre-rendered clips.
func (m Mode) UsesBumpers() bool { return m.Shorts() && m.News() }

// AspectRatio returns width/height of the produced scene images.
func (m Mode) AspectRatio() float64 {
	switch {
	case m.Shorts() && m.News():
		return 4.0 / 3.0
	case m.Shorts():
		return 9.0 / 16.0
	default:
		return 16.0 / 9.0
	}
}
