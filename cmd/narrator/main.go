package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/pipeline"
	"videofactory/internal/providers/speech"
	"videofactory/internal/storage"
)

func main() {
	var (
		langFlag   string
		genderFlag string
		storyFlag  string
	)
	flag.StringVar(&langFlag, "lang", "ko", "narration language (ko or en)")
	flag.StringVar(&genderFlag, "gender", "f", "voice gender (m or f)")
	flag.StringVar(&storyFlag, "story", "", "story document (defaults to STORY_PATH)")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "narrator").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storyPath := storyFlag
	if storyPath == "" {
		storyPath = cfg.StoryPath
	}
	data, err := os.ReadFile(storyPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", storyPath).Msg("narrator: story not readable")
	}
	story, err := domain.ParseStory(data)
	if err != nil {
		logger.Fatal().Err(err).Msg("narrator: story not usable")
	}

	stack, err := pipeline.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("narrator: setup failed")
	}
	defer stack.Close()
	if err := stack.RequireGemini(); err != nil {
		logger.Fatal().Err(err).Msg("narrator: cannot start")
	}

	out, err := storage.NewFileStore(cfg.AudioDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("narrator: audio dir unusable")
	}
	n, err := stack.Narrator(speech.Voice(langFlag, genderFlag))
	if err != nil {
		logger.Fatal().Err(err).Msg("narrator: setup failed")
	}

	rep, err := n.NarrateStory(ctx, story, out)
	if err != nil {
		logger.Fatal().Err(err).Msg("narrator: stopped")
	}
	logger.Info().
		Int("written", len(rep.Written)).
		Ints("skipped", rep.Skipped).
		Ints("failed", rep.Failed).
		Msg("narrator: done")
	if len(rep.Failed) > 0 {
		os.Exit(1)
	}
}
