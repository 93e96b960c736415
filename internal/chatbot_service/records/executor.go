package records

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"EduConnect/pkg/logger"
)

// collectionNames is the fixed set of record collections in the academic
// record store. The same pipeline is run against every collection; there
// is no attempt to pick the "right" one by schema.
var collectionNames = []string{
	"users",
	"courses",
	"marks",
	"attendances",
	"professorremarks",
	"assignments",
	"assignmentsubmissions",
}

// Executor runs aggregation pipelines against the academic record store.
// The record store is owned by the main EduConnect backend; this service
// only reads from it through the aggregation interface.
type Executor struct {
	db  *mongo.Database
	log *logger.Logger
}

// NewExecutor creates an Executor over the given database handle.
func NewExecutor(db *mongo.Database, log *logger.Logger) *Executor {
	return &Executor{db: db, log: log}
}

// Execute runs the pipeline against every known collection and
// concatenates all non-empty result sets. A pipeline that is malformed
// for a particular collection fails only that collection: the error is
// logged and the scan continues, so partial results are accepted.
func (e *Executor) Execute(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error) {
	if e.db == nil {
		return nil, fmt.Errorf("record store is not configured")
	}

	var all []bson.M
	for _, name := range collectionNames {
		cursor, err := e.db.Collection(name).Aggregate(ctx, pipeline)
		if err != nil {
			e.log.Error(fmt.Sprintf("Error executing query on collection %s: %v", name, err))
			continue
		}

		var rows []bson.M
		if err := cursor.All(ctx, &rows); err != nil {
			e.log.Error(fmt.Sprintf("Error reading results from collection %s: %v", name, err))
			continue
		}
		if len(rows) > 0 {
			all = append(all, rows...)
		}
	}

	return all, nil
}

// SerializeResults renders raw aggregation rows as a JSON array string for
// the answer-formatting prompt. Extended JSON keeps ObjectIDs and dates
// readable for the model.
func SerializeResults(rows []bson.M) (string, error) {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		data, err := bson.MarshalExtJSON(row, false, false)
		if err != nil {
			return "", fmt.Errorf("failed to serialize result row: %w", err)
		}
		parts = append(parts, string(data))
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}
