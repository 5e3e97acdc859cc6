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

// QuestionStore wraps the questions collection.
type QuestionStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{col: db.Collection(questionsCollection), now: time.Now}
}

func (s *QuestionStore) List(ctx context.Context) ([]domain.Question, error) {
	return s.find(ctx, bson.M{})
}

func (s *QuestionStore) ListUnsolved(ctx context.Context) ([]domain.Question, error) {
	return s.find(ctx, bson.M{"solvedByAditya": false, "solvedByAnanya": false})
}

func (s *QuestionStore) GetMany(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return []domain.Question{}, nil
	}
	found, err := s.find(ctx, bson.M{"_id": bson.M{"$in": toDocIDs(ids)}})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *QuestionStore) Create(ctx context.Context, q domain.Question) error {
	if _, err := s.col.InsertOne(ctx, toQuestionDoc(q, s.now().UTC())); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// Update follows the same versioned compare-and-replace as ContestStore.Update,
// so toggles of the two users' flags never overwrite each other.
func (s *QuestionStore) Update(ctx context.Context, id string, fn func(*domain.Question) error) (domain.Question, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var doc questionDoc
		if err := s.col.FindOne(ctx, bson.M{"_id": docID(id)}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.Question{}, domain.ErrQuestionNotFound
			}
			return domain.Question{}, fmt.Errorf("find question: %w", err)
		}
		q, err := doc.toDomain()
		if err != nil {
			return domain.Question{}, err
		}
		if err := fn(&q); err != nil {
			return domain.Question{}, err
		}

		next := toQuestionDoc(q, doc.CreatedAt)
		next.Version = doc.Version + 1
		res, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": versionFilter(doc.Version)}, next)
		if err != nil {
			return domain.Question{}, fmt.Errorf("replace question: %w", err)
		}
		if res.MatchedCount == 1 {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrConflict
}

func (s *QuestionStore) find(ctx context.Context, filter bson.M) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []questionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Question, 0, len(docs))
	for _, d := range docs {
		q, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
