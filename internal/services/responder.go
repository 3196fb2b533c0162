package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindcare-backend/internal/metrics"
)

// ReplySource names the branch that produced a reply.
type ReplySource string

const (
	SourceCrisis   ReplySource = "crisis"
	SourceProvider ReplySource = "provider"
	SourceFallback ReplySource = "fallback"
)

const DefaultGenerateTimeout = 15 * time.Second

type Reply struct {
	Text   string
	Source ReplySource
	Topic  Topic // set for crisis and fallback replies
}

// Responder picks the reply for a message: the crisis template, the
// generator, or a fallback template. It never fails.
type Responder struct {
	generator Generator
	timeout   time.Duration
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// NewResponder builds a Responder. gen may be nil for fallback-only mode.
func NewResponder(gen Generator, timeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Responder {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{generator: gen, timeout: timeout, log: log, metrics: m}
}

// HasGenerator reports whether replies may come from an external provider.
func (r *Responder) HasGenerator() bool {
	return r.generator != nil
}

func (r *Responder) Respond(ctx context.Context, message string, crisis bool) Reply {
	reply := r.respond(ctx, message, crisis)
	r.metrics.ObserveReply(string(reply.Source))
	return reply
}

func (r *Responder) respond(ctx context.Context, message string, crisis bool) Reply {
	if crisis {
		return Reply{Text: Template(TopicCrisis), Source: SourceCrisis, Topic: TopicCrisis}
	}

	if r.generator != nil {
		genCtx, cancel := context.WithTimeout(ctx, r.timeout)
		text, err := r.generator.Generate(genCtx, SystemPrompt, message)
		cancel()
		if err == nil && strings.TrimSpace(text) == "" {
			err = &ProviderError{Provider: r.generator.Name(), Err: ErrEmptyCompletion}
		}
		if err == nil {
			return Reply{Text: text, Source: SourceProvider}
		}
		r.metrics.ProviderFailed(r.generator.Name())
		r.log.Warn("text generator failed, using fallback",
			zap.String("provider", r.generator.Name()),
			zap.Error(err),
		)
	}

	topic := ClassifyTopic(message)
	return Reply{Text: Template(topic), Source: SourceFallback, Topic: topic}
}
