package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"videofactory/internal/article"
	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
	"videofactory/internal/providers/search"
)

const (
	// TopNewsTopic asks for a daily roundup instead of a single subject.
	TopNewsTopic = "Today's Top News"

	newsResultCount  = 20
	maxArticleRunes  = 20000
	defaultLanguage  = "ko"
	fallbackNewsText = "News search failed. Cover the most important current headlines."
)

// TextClient is the part of the Gemini client the writer needs.
type TextClient interface {
	GenerateText(ctx context.Context, apiKey, prompt string, jsonOutput bool) (string, error)
}

// NewsSearcher supplies headline context for news modes.
type NewsSearcher interface {
	News(ctx context.Context, query string, num int) ([]search.NewsItem, error)
}

// Options configures Writer.
type Options struct {
	Client     TextClient
	Rotator    *credentials.Rotator
	News       NewsSearcher
	Classifier *credentials.Classifier
	MinWait    time.Duration
	MaxWait    time.Duration
	Logger     *infra.Logger
	Now        func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Request describes the story to write.
type Request struct {
	Topic    string
	Mode     domain.Mode
	Language string
	// Article is required for url_news_shorts and ignored otherwise.
	Article *article.Article
}

// Result carries the parsed story next to the cleaned model document.
type Result struct {
	Story    domain.Story
	Document []byte
}

// Writer produces story documents with the text model.
type Writer struct {
	client  TextClient
	rotator *credentials.Rotator
	news    NewsSearcher
	policy  credentials.Policy
	logger  *infra.Logger
	now     func() time.Time
}

func NewWriter(opts Options) (*Writer, error) {
	if opts.Client == nil {
		return nil, errors.New("script: client is required")
	}
	if opts.Rotator == nil {
		return nil, errors.New("script: rotator is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := infra.OrNop(opts.Logger)
	return &Writer{
		client:  opts.Client,
		rotator: opts.Rotator,
		news:    opts.News,
		policy: credentials.Policy{
			MinWait:    opts.MinWait,
			MaxWait:    opts.MaxWait,
			Classifier: opts.Classifier,
			Logger:     logger,
			Sleep:      opts.Sleep,
		},
		logger: logger,
		now:    now,
	}, nil
}

// Write builds the prompt for req, asks the model for a story and normalizes the
// answer. Quota errors rotate through the pool once; any other provider error stops.
func (w *Writer) Write(ctx context.Context, req Request) (Result, error) {
	if req.Mode == "" {
		req.Mode = domain.ModeVideo
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	contextText, sourceType, err := w.sourceContext(ctx, req)
	if err != nil {
		return Result{}, err
	}
	prompt := BuildPrompt(req, contextText, sourceType, w.now())

	w.logger.Info().
		Str("mode", string(req.Mode)).
		Int("pool", w.rotator.Size()).
		Msg("script: calling text model")
	raw, err := credentials.Call(ctx, w.rotator, w.policy, func(ctx context.Context, cred credentials.Credential) (string, error) {
		return w.client.GenerateText(ctx, cred.Value, prompt, true)
	})
	if err != nil {
		return Result{}, err
	}

	doc := []byte(ExtractJSON(raw))
	story, err := domain.ParseStory(doc)
	if err != nil {
		return Result{}, err
	}
	w.logger.Info().Int("scenes", len(story.Scenes)).Str("title", story.Title).Msg("script: story ready")
	return Result{Story: story, Document: doc}, nil
}

func (w *Writer) sourceContext(ctx context.Context, req Request) (string, string, error) {
	if !req.Mode.News() {
		return "", "", nil
	}
	if req.Mode.UsesArticleCache() {
		if req.Article == nil || strings.TrimSpace(req.Article.Text) == "" {
			return "", "", errors.New("script: url mode requires a scraped article")
		}
		text := req.Article.Excerpt(maxArticleRunes)
		return fmt.Sprintf("Title: %s\nContent:\n%s", req.Article.Title, text), "Single Article", nil
	}
	return "[Search Results]\n" + w.NewsContext(ctx, req.Topic), "News Search Results", nil
}

// NewsContext renders the headline list used as model input. Search failures
// degrade to a generic instruction.
func (w *Writer) NewsContext(ctx context.Context, topic string) string {
	if w.news == nil {
		return fallbackNewsText
	}
	today := w.now().Format("2006-01-02")
	query := fmt.Sprintf("%s news updates %s", topic, today)
	if topic == "" || topic == TopNewsTopic {
		query = fmt.Sprintf("Top essential breaking news headlines U.S. and World %s summary", today)
	}
	items, err := w.news.News(ctx, query, newsResultCount)
	if err != nil {
		w.logger.Warn().Err(err).Str("query", query).Msg("script: news search failed")
		return fallbackNewsText
	}
	if len(items) == 0 {
		return fallbackNewsText
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- [%s | %s] %s: %s", it.Source, it.Date, it.Title, it.Snippet))
	}
	return strings.Join(lines, "\n")
}

// SaveStory writes the model document as indented JSON.
func SaveStory(path string, doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("script: story is not json: %w", err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, pretty, 0o644)
}
