package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"videofactory/internal/article"
	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/pipeline"
	"videofactory/internal/providers/script"
)

func main() {
	var (
		topicFlag string
		modeFlag  string
		langFlag  string
		outFlag   string
	)
	flag.StringVar(&topicFlag, "topic", script.TopNewsTopic, "story topic")
	flag.StringVar(&modeFlag, "mode", string(domain.ModeVideo), "run mode")
	flag.StringVar(&langFlag, "lang", "ko", "narration language (ko or en)")
	flag.StringVar(&outFlag, "out", "", "story output path (defaults to STORY_PATH)")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "writer").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := domain.ParseMode(modeFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("writer: bad mode")
	}

	stack, err := pipeline.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("writer: setup failed")
	}
	defer stack.Close()
	if err := stack.RequireGemini(); err != nil {
		logger.Fatal().Err(err).Msg("writer: cannot start")
	}

	req := script.Request{Topic: topicFlag, Mode: mode, Language: langFlag}
	if mode.UsesArticleCache() {
		a, err := article.LoadCache(cfg.ArticleCachePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("writer: article cache unreadable")
		}
		req.Article = &a
	}

	w, err := stack.Writer()
	if err != nil {
		logger.Fatal().Err(err).Msg("writer: setup failed")
	}
	res, err := w.Write(ctx, req)
	if err != nil {
		logger.Fatal().Err(err).Msg("writer: story generation failed")
	}

	out := outFlag
	if out == "" {
		out = cfg.StoryPath
	}
	if err := script.SaveStory(out, res.Document); err != nil {
		logger.Fatal().Err(err).Msg("writer: save failed")
	}
	logger.Info().Str("path", out).Int("scenes", len(res.Story.Scenes)).Msg("writer: story saved")
}
