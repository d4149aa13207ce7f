// Package answerer answers the questions users ask the assistant, through
// a hosted language model.
package answerer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Backend generates text with one named model.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Answerer asks a Backend, trying each model in turn until one answers.
type Answerer struct {
	backend Backend
	models  []string
	log     *zap.Logger
}

// New creates an Answerer. models are tried in order.
func New(backend Backend, models []string, log *zap.Logger) (*Answerer, error) {
	if len(models) == 0 {
		return nil, errors.New("answerer: no models configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Answerer{backend: backend, models: models, log: log}, nil
}

// Answer replies to question in lang ("ar" or "es"). When scholar is set
// the answer follows that scholar's views.
func (a *Answerer) Answer(ctx context.Context, lang, question, scholar string) (string, error) {
	prompt := buildPrompt(lang, question, scholar)

	var errs []error
	for _, model := range a.models {
		text, err := a.backend.Generate(ctx, model, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if err == nil {
			err = errors.New("empty answer")
		}
		a.log.Warn("model failed", zap.String("model", model), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("all models failed: %w", errors.Join(errs...))
}

func buildPrompt(lang, question, scholar string) string {
	var sb strings.Builder

	sb.WriteString("You are a knowledgeable assistant in Islamic jurisprudence and everyday matters.\n")
	sb.WriteString("Please answer the following question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\n")

	if scholar != "" {
		sb.WriteString("According to the views of scholar: ")
		sb.WriteString(scholar)
		sb.WriteString("\nIf the scholar's specific view is not known, give the general consensus (jumhur) and say so.\n\n")
	}

	switch lang {
	case "es":
		sb.WriteString("Answer in Spanish, clearly and respectfully, in a few sentences.")
	default:
		sb.WriteString("Answer in Arabic, clearly and respectfully, in a few sentences.")
	}
	return sb.String()
}
