package vector

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/qdrant/go-client/qdrant"
)

// idPayloadKey stores the original id of points whose id is neither numeric nor a UUID.
const idPayloadKey = "id"

// qdrantClient is the subset of *qdrant.Client used by QdrantIndex.
type qdrantClient interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

// QdrantConfig configures the Qdrant gRPC connection.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Dimensions int
}

// QdrantIndex is a VectorIndex backed by a Qdrant collection using cosine distance.
type QdrantIndex struct {
	client     qdrantClient
	collection string
}

// NewQdrantIndex connects to Qdrant and creates the collection when missing.
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.APIKey != "",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create qdrant client")
	}

	index := &QdrantIndex{client: client, collection: cfg.Collection}
	if err := index.ensureCollection(ctx, cfg.Dimensions); err != nil {
		client.Close()
		return nil, err
	}
	return index, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context, dimensions int) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return errors.Wrapf(err, "failed to check collection %s", q.collection)
	}
	if exists {
		return nil
	}
	if dimensions <= 0 {
		return errors.New("vector dimensions are required to create a qdrant collection")
	}
	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return errors.Wrapf(err, "failed to create collection %s", q.collection)
	}
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, v := range vectors {
		point := &qdrant.PointStruct{
			Id:      pointID(v.ID),
			Vectors: qdrant.NewVectors(v.Values...),
		}
		if !isNativeID(v.ID) {
			point.Payload = qdrant.NewValueMap(map[string]any{idPayloadKey: v.ID})
		}
		points[i] = point
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	}); err != nil {
		return errors.Wrap(err, "failed to upsert points")
	}
	return nil
}

func (q *QdrantIndex) Query(ctx context.Context, values []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	limit := uint64(topK)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(values...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query points")
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, Match{ID: matchID(p), Score: p.Score})
	}
	return matches, nil
}

func (q *QdrantIndex) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}
	if _, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	}); err != nil {
		return errors.Wrap(err, "failed to delete points")
	}
	return nil
}

func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func isNativeID(id string) bool {
	if _, err := strconv.ParseUint(id, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// pointID maps note ids to numeric point ids. Other ids become UUIDs,
// derived deterministically when they are not UUIDs already.
func pointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	if u, err := uuid.Parse(id); err == nil {
		return qdrant.NewIDUUID(u.String())
	}
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

func matchID(p *qdrant.ScoredPoint) string {
	if v, ok := p.GetPayload()[idPayloadKey]; ok {
		if s := v.GetStringValue(); s != "" {
			return s
		}
	}
	switch x := p.GetId().GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(x.Num, 10)
	case *qdrant.PointId_Uuid:
		return x.Uuid
	}
	return ""
}
