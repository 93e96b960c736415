package rag

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"EduConnect/internal/embedding"
	"EduConnect/pkg/logger"
)

const (
	// Schema fields of the knowledge-base collection.
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldChunk     = "chunk"
)

// Retriever finds knowledge-base chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// MilvusRetriever embeds the query and searches the Milvus collection
// that holds the institution's document chunks.
type MilvusRetriever struct {
	client     client.Client
	collection string
	embedder   embedding.Embedding
	log        *logger.Logger
}

// NewMilvusRetriever creates a retriever over an initialized Milvus client.
func NewMilvusRetriever(milvusClient client.Client, collectionName string, embedder embedding.Embedding, log *logger.Logger) (*MilvusRetriever, error) {
	if milvusClient == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusRetriever{
		client:     milvusClient,
		collection: collectionName,
		embedder:   embedder,
		log:        log,
	}, nil
}

// Retrieve embeds the query and returns the text of the topK nearest chunks.
func (r *MilvusRetriever) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Error(fmt.Sprintf("Failed to embed query: %v", err))
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)

	r.log.Info(fmt.Sprintf("Querying Milvus collection '%s' for top %d chunks", r.collection, topK))
	searchResults, err := r.client.Search(
		ctx, r.collection, []string{}, "", []string{FieldChunk},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		FieldEmbedding, entity.L2, topK, searchParams,
	)
	if err != nil {
		r.log.Error(fmt.Sprintf("Failed to search in Milvus: %v", err))
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var chunks []string
	for _, res := range searchResults {
		var chunkCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if field.Name() == FieldChunk {
				if col, ok := field.(*entity.ColumnVarChar); ok {
					chunkCol = col
				}
			}
		}
		if chunkCol == nil {
			r.log.Warn("Search result is missing chunk field or has wrong type, skipping.")
			continue
		}
		data := chunkCol.Data()
		for i := 0; i < res.ResultCount && i < len(data); i++ {
			chunks = append(chunks, data[i])
		}
	}

	r.log.Info(fmt.Sprintf("Retrieved %d chunks from vector store", len(chunks)))
	return chunks, nil
}
