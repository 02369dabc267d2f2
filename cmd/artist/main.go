package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"videofactory/internal/article"
	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/pipeline"
)

func main() {
	var (
		modeFlag   string
		storyFlag  string
		scrapeFlag string
	)
	flag.StringVar(&modeFlag, "mode", string(domain.ModeVideo), "run mode: video, shorts, news_video, news_shorts or url_news_shorts")
	flag.StringVar(&storyFlag, "story", "", "story document (defaults to STORY_PATH)")
	flag.StringVar(&scrapeFlag, "scrape", "", "scrape this article URL into the article cache and exit")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "artist").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if scrapeFlag != "" {
		if err := scrape(ctx, cfg, &logger, scrapeFlag); err != nil {
			logger.Fatal().Err(err).Str("url", scrapeFlag).Msg("artist: scrape failed")
		}
		return
	}

	mode, err := domain.ParseMode(modeFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("artist: bad mode")
	}
	storyPath := storyFlag
	if storyPath == "" {
		storyPath = cfg.StoryPath
	}
	data, err := os.ReadFile(storyPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", storyPath).Msg("artist: story not readable")
	}
	story, err := domain.ParseStory(data)
	if err != nil {
		logger.Fatal().Err(err).Str("path", storyPath).Msg("artist: story not usable")
	}

	stack, err := pipeline.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("artist: setup failed")
	}
	defer stack.Close()
	if err := stack.RequireGemini(); err != nil {
		logger.Fatal().Err(err).Msg("artist: cannot start")
	}

	var images []string
	if mode.UsesArticleCache() {
		cached, err := article.LoadCache(cfg.ArticleCachePath)
		if err != nil {
			logger.Warn().Err(err).Msg("artist: article cache ignored")
		}
		images = cached.Images
	}

	orch, err := stack.Orchestrator(pipeline.RunOptions{ArticleImages: images})
	if err != nil {
		logger.Fatal().Err(err).Msg("artist: orchestrator setup failed")
	}
	run, err := orch.Run(ctx, story, mode)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("artist: interrupted")
			os.Exit(130)
		}
		logger.Fatal().Err(err).Msg("artist: run failed")
	}

	snap := stack.Metrics.Snapshot()
	logger.Info().
		Str("run_id", run.ID).
		Int("scenes", len(run.Results)).
		Interface("provenance", snap.Provenance).
		Interface("rejections", snap.Rejections).
		Msg("artist: done")
}

func scrape(ctx context.Context, cfg *infra.Config, logger *infra.Logger, url string) error {
	a, err := article.NewScraper(nil, logger).Scrape(ctx, url)
	if err != nil {
		return err
	}
	if err := article.SaveCache(cfg.ArticleCachePath, a); err != nil {
		return err
	}
	logger.Info().Str("path", cfg.ArticleCachePath).Int("images", len(a.Images)).Msg("artist: article cached")
	return nil
}
