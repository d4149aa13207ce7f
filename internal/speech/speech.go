// Package speech plays replies aloud. At most one utterance plays at a
// time: a new one cancels the one in flight.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Synthesizer speaks text and blocks until playback ends or ctx is
// cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, lang, text string) error
}

// CommandSynthesizer runs an external text-to-speech program. In Args,
// "{voice}" is replaced with the voice for the language and "{text}"
// with the text; without a "{text}" argument the text is appended.
type CommandSynthesizer struct {
	Command string
	Args    []string
	Voices  map[string]string
}

// DefaultCommand is espeak-ng with its Arabic and Spanish voices.
func DefaultCommand() CommandSynthesizer {
	return CommandSynthesizer{
		Command: "espeak-ng",
		Args:    []string{"-v", "{voice}", "{text}"},
		Voices:  map[string]string{"ar": "ar", "es": "es"},
	}
}

func (c CommandSynthesizer) args(lang, text string) []string {
	voice := c.Voices[lang]
	if voice == "" {
		voice = lang
	}
	args := make([]string, 0, len(c.Args)+1)
	hasText := false
	for _, a := range c.Args {
		if strings.Contains(a, "{text}") {
			hasText = true
		}
		a = strings.ReplaceAll(a, "{voice}", voice)
		a = strings.ReplaceAll(a, "{text}", text)
		args = append(args, a)
	}
	if !hasText {
		args = append(args, text)
	}
	return args
}

// Synthesize runs the command; cancelling ctx kills it.
func (c CommandSynthesizer) Synthesize(ctx context.Context, lang, text string) error {
	cmd := exec.CommandContext(ctx, c.Command, c.args(lang, text)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %s: %w", c.Command, err)
	}
	return nil
}

// Speaker serialises utterances on a Synthesizer with preemption.
type Speaker struct {
	synth Synthesizer
	log   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewSpeaker creates a Speaker.
func NewSpeaker(synth Synthesizer, log *zap.Logger) *Speaker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Speaker{synth: synth, log: log}
}

// Speak stops whatever is playing, waits for it to end, then starts text.
// It returns without waiting for playback.
func (s *Speaker) Speak(lang, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		err := s.synth.Synthesize(ctx, lang, text)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("speech synthesis failed", zap.String("lang", lang), zap.Error(err))
		}
	}()
}

func (s *Speaker) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

// Stop cancels the utterance in flight, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Wait blocks until the current utterance has finished playing.
func (s *Speaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops playback; later calls to Speak are ignored.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	return nil
}

// Nop is a silent voice.
type Nop struct{}

func (Nop) Speak(lang, text string) {}
func (Nop) Stop()                   {}
