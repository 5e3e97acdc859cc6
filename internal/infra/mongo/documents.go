package mongo

import (
	"fmt"
	"time"

	"codeduel/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	questionsCollection = "questions"
	contestsCollection  = "contests"

	maxUpdateAttempts = 5
)

// docID is a question reference. Documents written by the earlier Node
// deployment use ObjectIds while new questions get UUID strings; both decode
// to a string, and a 24-hex id is written back as an ObjectId so filters and
// replacements keep matching the stored type.
type docID string

func (id docID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if oid, err := primitive.ObjectIDFromHex(string(id)); err == nil {
		return bson.MarshalValue(oid)
	}
	return bson.MarshalValue(string(id))
}

func (id *docID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if oid, ok := raw.ObjectIDOK(); ok {
		*id = docID(oid.Hex())
		return nil
	}
	if s, ok := raw.StringValueOK(); ok {
		*id = docID(s)
		return nil
	}
	return fmt.Errorf("unsupported id type %s", t)
}

func toDocIDs(ids []string) []docID {
	out := make([]docID, len(ids))
	for i, id := range ids {
		out[i] = docID(id)
	}
	return out
}

func fromDocIDs(ids []docID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Field names match the mongoose schemas. Version guards replacements;
// documents without one read as version 0.
type questionDoc struct {
	ID             docID     `bson:"_id"`
	Company        string    `bson:"company"`
	Question       string    `bson:"question"`
	Link           string    `bson:"link"`
	Level          string    `bson:"level"`
	SolvedByAditya bool      `bson:"solvedByAditya"`
	SolvedByAnanya bool      `bson:"solvedByAnanya"`
	Winner         *string   `bson:"winner"`
	CreatedAt      time.Time `bson:"createdAt"`
	Version        int64     `bson:"version"`
}

type solveDoc struct {
	User      string    `bson:"user"`
	Question  docID     `bson:"question"`
	Solved    bool      `bson:"solved"`
	Timestamp time.Time `bson:"timestamp"`
}

type contestDoc struct {
	Code      string     `bson:"code"`
	Questions []docID    `bson:"questions"`
	StartTime time.Time  `bson:"startTime"`
	EndTime   time.Time  `bson:"endTime"`
	Duration  int        `bson:"duration"`
	Status    string     `bson:"status"`
	Solves    []solveDoc `bson:"solves"`
	Winner    *string    `bson:"winner"`
	Version   int64      `bson:"version"`
}

func toQuestionDoc(q domain.Question, createdAt time.Time) questionDoc {
	return questionDoc{
		ID:             docID(q.ID),
		Company:        q.Company,
		Question:       q.Question,
		Link:           q.Link,
		Level:          q.Level,
		SolvedByAditya: q.SolvedBy[domain.UserA],
		SolvedByAnanya: q.SolvedBy[domain.UserB],
		Winner:         userName(q.Winner),
		CreatedAt:      createdAt,
	}
}

func (d questionDoc) toDomain() (domain.Question, error) {
	w, err := parseUserName(d.Winner)
	if err != nil {
		return domain.Question{}, err
	}
	return domain.Question{
		ID:       string(d.ID),
		Company:  d.Company,
		Question: d.Question,
		Link:     d.Link,
		Level:    d.Level,
		SolvedBy: [2]bool{domain.UserA: d.SolvedByAditya, domain.UserB: d.SolvedByAnanya},
		Winner:   w,
	}, nil
}

func toContestDoc(c domain.Contest) contestDoc {
	solves := make([]solveDoc, len(c.Solves))
	for i, s := range c.Solves {
		solves[i] = solveDoc{
			User:      s.User.String(),
			Question:  docID(s.QuestionID),
			Solved:    s.Solved,
			Timestamp: s.Timestamp,
		}
	}
	return contestDoc{
		Code:      c.Code,
		Questions: toDocIDs(c.QuestionIDs),
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Duration:  c.Duration,
		Status:    string(c.Status),
		Solves:    solves,
		Winner:    userName(c.Winner),
	}
}

func (d contestDoc) toDomain() (domain.Contest, error) {
	solves := make([]domain.Solve, len(d.Solves))
	for i, s := range d.Solves {
		u, err := domain.ParseUser(s.User)
		if err != nil {
			return domain.Contest{}, err
		}
		solves[i] = domain.Solve{User: u, QuestionID: string(s.Question), Solved: s.Solved, Timestamp: s.Timestamp}
	}
	w, err := parseUserName(d.Winner)
	if err != nil {
		return domain.Contest{}, err
	}
	return domain.Contest{
		Code:        d.Code,
		QuestionIDs: fromDocIDs(d.Questions),
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Duration:    d.Duration,
		Status:      domain.ContestStatus(d.Status),
		Solves:      solves,
		Winner:      w,
	}, nil
}

func userName(u *domain.User) *string {
	if u == nil {
		return nil
	}
	s := u.String()
	return &s
}

func parseUserName(s *string) (*domain.User, error) {
	if s == nil {
		return nil, nil
	}
	u, err := domain.ParseUser(*s)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// versionFilter matches the read version; version 0 also matches documents
// that predate the field.
func versionFilter(v int64) any {
	if v == 0 {
		return bson.M{"$in": bson.A{int64(0), nil}}
	}
	return v
}
