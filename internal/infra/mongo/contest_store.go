package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeduel/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ContestStore wraps the contests collection. Contests are looked up by
// code; Mongo's own _id is left to the driver.
type ContestStore struct {
	col *mongo.Collection
}

func NewContestStore(db *mongo.Database) *ContestStore {
	return &ContestStore{col: db.Collection(contestsCollection)}
}

func (s *ContestStore) Insert(ctx context.Context, c domain.Contest) error {
	if _, err := s.col.InsertOne(ctx, toContestDoc(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert contest: %w", err)
	}
	return nil
}

func (s *ContestStore) Get(ctx context.Context, code string) (domain.Contest, error) {
	var doc contestDoc
	if err := s.col.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Contest{}, domain.ErrContestNotFound
		}
		return domain.Contest{}, fmt.Errorf("find contest: %w", err)
	}
	return doc.toDomain()
}

func (s *ContestStore) ListByStatus(ctx context.Context, status domain.ContestStatus) ([]domain.Contest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}})
	return s.find(ctx, bson.M{"status": string(status)}, opts)
}

func (s *ContestStore) ListDue(ctx context.Context, now time.Time) ([]domain.Contest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endTime", Value: 1}})
	return s.find(ctx, bson.M{
		"status":  string(domain.ContestLive),
		"endTime": bson.M{"$lte": now},
	}, opts)
}

// Update is an optimistic read-modify-replace: the replacement only lands if
// the document's version is unchanged since it was read. On a lost race fn is
// re-run against the fresh document, up to maxUpdateAttempts times, after
// which domain.ErrConflict is returned.
func (s *ContestStore) Update(ctx context.Context, code string, fn func(*domain.Contest) error) (domain.Contest, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var doc contestDoc
		if err := s.col.FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.Contest{}, domain.ErrContestNotFound
			}
			return domain.Contest{}, fmt.Errorf("find contest: %w", err)
		}
		current, err := doc.toDomain()
		if err != nil {
			return domain.Contest{}, err
		}
		if err := fn(&current); err != nil {
			return domain.Contest{}, err
		}

		next := toContestDoc(current)
		next.Version = doc.Version + 1
		res, err := s.col.ReplaceOne(ctx, bson.M{"code": code, "version": versionFilter(doc.Version)}, next)
		if err != nil {
			return domain.Contest{}, fmt.Errorf("replace contest: %w", err)
		}
		if res.MatchedCount == 1 {
			return current, nil
		}
	}
	return domain.Contest{}, domain.ErrConflict
}

func (s *ContestStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Contest, error) {
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find contests: %w", err)
	}
	defer cur.Close(ctx)

	var docs []contestDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Contest, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
