package records

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ParseMode reports which parsing stage produced a pipeline, so callers
// can distinguish well-formed generator output from recovered output.
type ParseMode int

const (
	// ParseStrict means the generated text was valid extended JSON as-is.
	ParseStrict ParseMode = iota
	// ParseRecovered means the text only parsed after stripping markdown
	// code fences and/or normalizing quoting.
	ParseRecovered
)

// String returns a short label for logging.
func (m ParseMode) String() string {
	if m == ParseStrict {
		return "strict"
	}
	return "recovered"
}

// ParsePipeline parses LLM-generated text into an aggregation pipeline.
// The first attempt takes the text verbatim; the query-generation prompt
// asks for a bare JSON array but the model is not guaranteed to comply,
// so a failed strict parse falls back to stripping markdown fences and,
// as a last resort, rewriting single quotes to double quotes. When every
// stage fails the error is returned for the request handler to surface.
func ParsePipeline(text string) (mongo.Pipeline, ParseMode, error) {
	if pipeline, err := decodePipeline(text); err == nil {
		return pipeline, ParseStrict, nil
	}

	cleaned := stripFences(text)
	if pipeline, err := decodePipeline(cleaned); err == nil {
		return pipeline, ParseRecovered, nil
	}

	relaxed := strings.ReplaceAll(cleaned, "'", `"`)
	pipeline, err := decodePipeline(relaxed)
	if err != nil {
		return nil, 0, fmt.Errorf("unparseable aggregation pipeline: %w", err)
	}
	return pipeline, ParseRecovered, nil
}

// decodePipeline decodes a JSON array of stages. The array is wrapped in a
// document because the bson ext-JSON decoder wants a document at top level.
func decodePipeline(text string) (mongo.Pipeline, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") {
		return nil, fmt.Errorf("pipeline text does not start with '['")
	}

	var wrapper struct {
		Pipeline mongo.Pipeline `bson:"pipeline"`
	}
	doc := `{"pipeline": ` + text + `}`
	if err := bson.UnmarshalExtJSON([]byte(doc), false, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Pipeline) == 0 {
		return nil, fmt.Errorf("pipeline is empty")
	}
	return wrapper.Pipeline, nil
}

// stripFences removes markdown code-fence markers around generated JSON.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
