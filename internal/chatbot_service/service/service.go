package service

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"EduConnect/internal/chatbot_service/records"
	"EduConnect/internal/llm"
	"EduConnect/pkg/logger"
)

// Answer sources reported to the client. Personal answers carry no source.
const (
	SourceExactMatch   = "cache_exact_match"
	SourceSimilarMatch = "cache_similar_match"
	SourceFreshQuery   = "fresh_query"
)

// Fixed responses for the two dead ends of the routing flow.
const (
	msgNoPersonalRecords = "No personal records found."
	msgNoInformation     = "No relevant information found."
)

// Cache is the semantic cache surface the service needs.
type Cache interface {
	ExactMatch(question string) (string, bool)
	FindSimilar(ctx context.Context, question string) (string, float64, bool)
	Add(ctx context.Context, question, answer string) error
}

// RecordExecutor runs an aggregation pipeline against the academic records.
type RecordExecutor interface {
	Execute(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error)
}

// Answerer produces an answer for a general knowledge question.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Searcher is an external lookup that either answers or misses.
type Searcher interface {
	Search(ctx context.Context, query string) (string, bool)
}

// SearchFunc adapts a function to the Searcher interface.
type SearchFunc func(ctx context.Context, query string) (string, bool)

func (f SearchFunc) Search(ctx context.Context, query string) (string, bool) {
	return f(ctx, query)
}

// Answer is the routed response for one question.
type Answer struct {
	Text       string
	Source     string
	Similarity float64
	// Similar marks that Similarity carries a meaningful score.
	Similar bool
}

// Service routes a student question through classification, the semantic
// cache and the answer fallback chain.
type Service struct {
	llm      llm.LLM
	cache    Cache
	records  RecordExecutor
	answerer Answerer
	web      Searcher
	wiki     Searcher
	log      *logger.Logger
}

// New wires the routing service. records, answerer, web and wiki may each
// be nil; the corresponding branch then degrades gracefully.
func New(model llm.LLM, cache Cache, recordExec RecordExecutor, answerer Answerer, web, wiki Searcher, log *logger.Logger) *Service {
	return &Service{
		llm:      model,
		cache:    cache,
		records:  recordExec,
		answerer: answerer,
		web:      web,
		wiki:     wiki,
		log:      log,
	}
}

// Ask answers a question for the student identified by email.
//
// Personal questions are translated to an aggregation pipeline and run
// against the academic records; their answers are never cached. General
// questions go through the cache first, then the knowledge-base answerer,
// then web search and Wikipedia, and fresh answers are cached on the
// way out.
func (s *Service) Ask(ctx context.Context, question, email string) (*Answer, error) {
	s.log.Info(fmt.Sprintf("Received query: %s", question))

	if s.isPersonal(ctx, question) {
		return s.answerPersonal(ctx, question, email)
	}

	if answer, ok := s.cache.ExactMatch(question); ok {
		s.log.Info(fmt.Sprintf("Found exact match in cache for: %s", question))
		return &Answer{Text: answer, Source: SourceExactMatch}, nil
	}

	if answer, score, ok := s.cache.FindSimilar(ctx, question); ok {
		s.log.Info(fmt.Sprintf("Found similar question in cache with similarity: %.4f", score))
		return &Answer{Text: answer, Source: SourceSimilarMatch, Similarity: score, Similar: true}, nil
	}

	s.log.Info("No cache hit, generating fresh answer")
	answer := s.answerGeneral(ctx, question)

	if err := s.cache.Add(ctx, question, answer); err != nil {
		// The answer is still valid; only its reuse is lost.
		s.log.Error(fmt.Sprintf("Error saving to cache: %v", err))
	}

	return &Answer{Text: answer, Source: SourceFreshQuery}, nil
}

// isPersonal asks the LLM to classify the question. Classification
// failures are treated as general so the student still gets an answer.
func (s *Service) isPersonal(ctx context.Context, question string) bool {
	raw, err := s.llm.Generate(ctx, classifyPrompt(question))
	if err != nil {
		s.log.Warn(fmt.Sprintf("Classification failed, treating as general: %v", err))
		return false
	}
	classification := strings.ToLower(strings.TrimSpace(raw))
	s.log.Info(fmt.Sprintf("Classification: %s", classification))
	return classification == "true"
}

// answerPersonal translates the question into an aggregation pipeline,
// runs it over the academic collections and formats the rows into prose.
func (s *Service) answerPersonal(ctx context.Context, question, email string) (*Answer, error) {
	if s.records == nil {
		return nil, fmt.Errorf("record store is not configured")
	}

	generated, err := s.llm.Generate(ctx, queryPrompt(question, email))
	if err != nil {
		return nil, fmt.Errorf("failed to generate aggregation query: %w", err)
	}

	pipeline, mode, err := records.ParsePipeline(generated)
	if err != nil {
		s.log.Error(fmt.Sprintf("Unparseable aggregation query: %v", err))
		return nil, fmt.Errorf("failed to parse aggregation query: %w", err)
	}
	if mode == records.ParseRecovered {
		s.log.Warn("Aggregation query needed cleanup before parsing")
	}

	rows, err := s.records.Execute(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Answer{Text: msgNoPersonalRecords}, nil
	}

	serialized, err := records.SerializeResults(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query results: %w", err)
	}

	formatted, err := s.llm.Generate(ctx, answerPrompt(question, serialized))
	if err != nil {
		return nil, fmt.Errorf("failed to format query results: %w", err)
	}
	return &Answer{Text: strings.TrimSpace(formatted)}, nil
}

// answerGeneral walks the fallback chain: knowledge base, web search,
// Wikipedia, and finally a fixed apology. It always produces a non-empty
// answer.
func (s *Service) answerGeneral(ctx context.Context, question string) string {
	answer := s.askKnowledgeBase(ctx, question)
	if !isUnhelpful(answer) {
		return answer
	}

	s.log.Info("Knowledge base didn't provide useful answer, trying web search...")
	if s.web != nil {
		if webAnswer, ok := s.web.Search(ctx, question); ok {
			s.log.Info("Using web search answer")
			return webAnswer
		}
	}

	s.log.Info("Web search didn't provide answer, trying Wikipedia...")
	if s.wiki != nil {
		if wikiAnswer, ok := s.wiki.Search(ctx, question); ok {
			s.log.Info("Using Wikipedia answer")
			return wikiAnswer
		}
	}

	s.log.Warn("All sources failed to provide an answer")
	return msgNoInformation
}

// askKnowledgeBase queries the configured answerer, or the plain LLM when
// no knowledge base is wired.
func (s *Service) askKnowledgeBase(ctx context.Context, question string) string {
	if s.answerer != nil {
		answer, err := s.answerer.Answer(ctx, question)
		if err != nil {
			s.log.Error(fmt.Sprintf("Knowledge base query failed: %v", err))
			return ""
		}
		return strings.TrimSpace(answer)
	}

	answer, err := s.llm.Generate(ctx, fallbackPrompt(question))
	if err != nil {
		s.log.Error(fmt.Sprintf("Fallback generation failed: %v", err))
		return ""
	}
	return strings.TrimSpace(answer)
}
