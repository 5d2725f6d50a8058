package index

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

// QdrantStore is the alternative index backend for deployments that run a
// Qdrant instance instead of (or alongside) the file-backed flat index. It
// offers the same Search/Add surface the retriever and ingest pipeline use.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// NewQdrantStore connects to Qdrant at the given gRPC address.
func NewQdrantStore(addr, collection string) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("index: dial qdrant %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantStore) Close() error { return q.conn.Close() }

// EnsureCollection creates the collection if it does not exist. Distance is
// Dot: vectors are unit-normalized before they reach the store, so dot
// product equals cosine.
func (q *QdrantStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("index: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Dot,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("index: create collection %s: %w", q.collection, err)
	}
	return nil
}

// Add upserts chunks with their vectors. Point IDs are deterministic UUIDs
// derived from document and anchor plus an insertion counter, so re-running
// ingestion overwrites rather than duplicates.
func (q *QdrantStore) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("index: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(chunks))
	for i, c := range chunks {
		id := uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s#%s/%d", c.Document, c.Anchor, i)).String()
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: id},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*pb.Value{
				"document_name": {Kind: &pb.Value_StringValue{StringValue: c.Document}},
				"anchor":        {Kind: &pb.Value_StringValue{StringValue: c.Anchor}},
				"text":          {Kind: &pb.Value_StringValue{StringValue: c.Text}},
			},
		}
	}

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("index: upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search runs k-NN search and maps payloads back to retrieval results.
func (q *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("index: qdrant search: %w", err)
	}

	results := make([]domain.RetrievalResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		results[i] = domain.RetrievalResult{
			Document: payload["document_name"].GetStringValue(),
			Anchor:   payload["anchor"].GetStringValue(),
			Text:     payload["text"].GetStringValue(),
			Score:    r.GetScore(),
		}
	}
	return results, nil
}
