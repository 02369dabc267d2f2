package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"videofactory/internal/domain"
	"videofactory/internal/infra"
	"videofactory/internal/infra/credentials"
	"videofactory/internal/providers/genai"
)

// ErrEmptyNarration means there was nothing left to say after cleanup.
var ErrEmptyNarration = errors.New("speech: empty narration")

// SpeechClient is the part of the Gemini client the narrator needs.
type SpeechClient interface {
	GenerateSpeech(ctx context.Context, apiKey, text, voice string) (genai.Blob, error)
}

// Writer stores rendered clips.
type Writer interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

var voices = map[string]map[string]string{
	"en": {"m": "Puck", "f": "Aoede"},
	"ko": {"m": "Puck", "f": "Aoede"},
}

// Voice picks the prebuilt voice for a language and gender ("m" or "f").
// Unknown languages fall back to Korean and unknown genders to "f".
func Voice(language, gender string) string {
	byGender, ok := voices[strings.ToLower(language)]
	if !ok {
		byGender = voices["ko"]
	}
	if v, ok := byGender[strings.ToLower(gender)]; ok {
		return v
	}
	return byGender["f"]
}

// Options configures Narrator.
type Options struct {
	Client     SpeechClient
	Rotator    *credentials.Rotator
	Voice      string
	Classifier *credentials.Classifier
	MinWait    time.Duration
	MaxWait    time.Duration
	Logger     *infra.Logger
	Sleep      func(ctx context.Context, d time.Duration) error
}

// Narrator turns scene narration into WAV clips.
type Narrator struct {
	client  SpeechClient
	rotator *credentials.Rotator
	voice   string
	policy  credentials.Policy
	logger  *infra.Logger
}

func NewNarrator(opts Options) (*Narrator, error) {
	if opts.Client == nil {
		return nil, errors.New("speech: client is required")
	}
	if opts.Rotator == nil {
		return nil, errors.New("speech: rotator is required")
	}
	voice := opts.Voice
	if voice == "" {
		voice = Voice("ko", "f")
	}
	logger := infra.OrNop(opts.Logger)
	return &Narrator{
		client:  opts.Client,
		rotator: opts.Rotator,
		voice:   voice,
		policy: credentials.Policy{
			MinWait:    opts.MinWait,
			MaxWait:    opts.MaxWait,
			Classifier: opts.Classifier,
			Logger:     logger,
			Sleep:      opts.Sleep,
		},
		logger: logger,
	}, nil
}

// CleanNarration drops the asterisks used to mark keywords.
func CleanNarration(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "*", ""))
}

// Synthesize renders text as a WAV clip. Quota errors rotate through the pool
// once; other provider errors stop immediately.
func (n *Narrator) Synthesize(ctx context.Context, text string) ([]byte, error) {
	clean := CleanNarration(text)
	if clean == "" {
		return nil, ErrEmptyNarration
	}
	blob, err := credentials.Call(ctx, n.rotator, n.policy, func(ctx context.Context, cred credentials.Credential) (genai.Blob, error) {
		return n.client.GenerateSpeech(ctx, cred.Value, clean, n.voice)
	})
	if err != nil {
		return nil, err
	}
	if len(blob.Data) == 0 {
		return nil, fmt.Errorf("speech: %w: no audio data", domain.ErrProviderFailure)
	}
	if isWAV(blob.Data) {
		return blob.Data, nil
	}
	return EncodeWAV(blob.Data, SampleRate(blob.MimeType)), nil
}

// ClipKey is the storage key of a scene's narration clip.
func ClipKey(index int) string {
	return fmt.Sprintf("audio_%d.wav", index)
}

// Report summarizes a NarrateStory pass.
type Report struct {
	Written []string
	Skipped []int
	Failed  []int
}

// NarrateStory renders every scene in order. Scenes with no narration are
// skipped; a failed scene does not stop the rest. Only credential and context
// errors abort the pass.
func (n *Narrator) NarrateStory(ctx context.Context, story domain.Story, out Writer) (Report, error) {
	var rep Report
	for _, scene := range story.Scenes {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		clip, err := n.Synthesize(ctx, scene.Narration)
		switch {
		case errors.Is(err, ErrEmptyNarration):
			rep.Skipped = append(rep.Skipped, scene.Index)
			continue
		case errors.Is(err, domain.ErrNoCredentials), errors.Is(err, context.Canceled):
			return rep, err
		case err != nil:
			n.logger.Warn().Err(err).Int("scene", scene.Index).Msg("speech: narration failed")
			rep.Failed = append(rep.Failed, scene.Index)
			continue
		}
		path, err := out.Write(ctx, ClipKey(scene.Index), clip)
		if err != nil {
			n.logger.Warn().Err(err).Int("scene", scene.Index).Msg("speech: store clip failed")
			rep.Failed = append(rep.Failed, scene.Index)
			continue
		}
		n.logger.Info().Int("scene", scene.Index).Str("path", path).Msg("speech: clip written")
		rep.Written = append(rep.Written, path)
	}
	return rep, nil
}
