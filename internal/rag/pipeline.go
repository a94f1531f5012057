// Package rag answers user questions against the ingested health-plan
// documents: a relevance gate, nearest-neighbour retrieval and a
// grounded synthesis call, modelled as an explicit state machine.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
)

// Canned answers, in the assistant's language.
const (
	NoDataAnswer = "Desculpe, não encontrei informações relacionadas a essa pergunta na nossa base de dados de planos de saúde."

	FailureAnswer = "Desculpe, ocorreu um erro ao consultar a base de dados de planos de saúde. Tente novamente mais tarde."
)

const (
	gateSystemPrompt = "Você é um classificador de perguntas sobre planos de saúde."

	gateUserPrompt = `A pergunta abaixo é sobre planos de saúde, coberturas, carências, reembolsos ou redes credenciadas?

Pergunta: %s

Responda apenas com "Sim" ou "Não".`

	answerSystemPrompt = "Você é um assistente que responde perguntas sobre planos de saúde usando apenas o contexto fornecido. Se o contexto não contiver a resposta, diga que não sabe."

	answerUserPrompt = `Contexto:
%s

Pergunta: %s`
)

// callTimeout bounds each external call (gate, embedding, retrieval,
// synthesis) independently.
const callTimeout = 30 * time.Second

// Searcher is the retrieval capability the pipeline needs from the
// vector store.
type Searcher interface {
	QuerySimilar(ctx context.Context, embedding []float32, k int) ([]domain.SimilarMatch, error)
}

// Pipeline orchestrates the query flow.
type Pipeline struct {
	chat     domain.ChatModel
	embedder domain.Embedder
	store    Searcher
	topK     int
	logger   *zap.Logger
}

// New creates a query pipeline. topK is the default number of chunks
// retrieved per question.
func New(chat domain.ChatModel, embedder domain.Embedder, store Searcher, topK int, logger *zap.Logger) *Pipeline {
	return &Pipeline{chat: chat, embedder: embedder, store: store, topK: topK, logger: logger}
}

// Result is the terminal output of one query run.
type Result struct {
	Query      string
	IsRelevant bool
	Response   string
}

// Run walks the state machine for one question. It always returns a
// user-facing answer: gate or retrieval failures yield FailureAnswer,
// off-topic questions yield NoDataAnswer.
func (p *Pipeline) Run(ctx context.Context, query string, k int) Result {
	if k <= 0 {
		k = p.topK
	}
	res := Result{Query: query}
	state := Transition(StateStart, EventQueryReceived)

	for state != StateEnd {
		switch state {
		case StateValidate:
			relevant, err := p.validate(ctx, query)
			if err != nil {
				p.logger.Error("Relevance gate failed", zap.Error(err))
				res.Response = FailureAnswer
				return res
			}
			res.IsRelevant = relevant
			if relevant {
				state = Transition(state, EventRelevant)
			} else {
				state = Transition(state, EventNotRelevant)
			}

		case StateRetrieveAndAnswer:
			answer, err := p.retrieveAndAnswer(ctx, query, k)
			if err != nil {
				p.logger.Error("Retrieval or synthesis failed", zap.Error(err))
				res.Response = FailureAnswer
				state = Transition(state, EventFailed)
				continue
			}
			res.Response = answer
			state = Transition(state, EventAnswered)

		case StateNoData:
			res.Response = NoDataAnswer
			state = Transition(state, EventAnswered)

		default:
			state = StateEnd
		}
	}
	return res
}

// validate asks the chat model whether the question is on topic. Only
// a reply starting with an affirmative token counts as relevant.
func (p *Pipeline) validate(ctx context.Context, query string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	reply, err := p.chat.Complete(ctx, gateSystemPrompt, fmt.Sprintf(gateUserPrompt, query))
	if err != nil {
		return false, fmt.Errorf("relevance check failed: %w", err)
	}
	return isAffirmative(reply), nil
}

func isAffirmative(reply string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "sim")
}

func (p *Pipeline) retrieveAndAnswer(ctx context.Context, query string, k int) (string, error) {
	embedCtx, cancel := context.WithTimeout(ctx, callTimeout)
	vec, err := p.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, callTimeout)
	matches, err := p.store.QuerySimilar(queryCtx, vec, k)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to retrieve chunks: %w", err)
	}
	if len(matches) == 0 {
		return NoDataAnswer, nil
	}

	contexts := make([]string, len(matches))
	for i, m := range matches {
		contexts[i] = m.Content
	}

	p.logger.Debug("Retrieved context",
		zap.Int("matches", len(matches)),
		zap.Float64("nearest_distance", matches[0].Distance))

	answerCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	answer, err := p.chat.Complete(answerCtx, answerSystemPrompt,
		fmt.Sprintf(answerUserPrompt, strings.Join(contexts, "\n\n---\n\n"), query))
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return answer, nil
}
