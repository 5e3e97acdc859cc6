package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"codeduel/internal/domain"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStoresAgainstMongo(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)

	questions := NewQuestionStore(db)
	contests := NewContestStore(db)

	for _, id := range []string{"q1", "q2", "q3"} {
		if err := questions.Create(ctx, domain.Question{ID: id, Company: "Acme", Question: "Problem " + id}); err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	// BSON dates keep millisecond precision.
	start := time.Now().UTC().Truncate(time.Millisecond)
	contest := domain.NewContest("MGTEST", []string{"q3", "q1"}, 1, start)

	if err := contests.Insert(ctx, contest); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := contests.Insert(ctx, contest); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}

	if _, err := contests.Update(ctx, "MGTEST", func(c *domain.Contest) error {
		return c.ApplySolve(domain.UserA, "q3", true, start.Add(5*time.Second))
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := contests.Get(ctx, "MGTEST")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuestionIDs[0] != "q3" || !got.EndTime.Equal(start.Add(time.Minute)) || len(got.Solves) != 1 {
		t.Fatalf("round trip lost data: %+v", got)
	}

	live, _ := contests.ListByStatus(ctx, domain.ContestLive)
	if len(live) != 1 {
		t.Fatalf("expected one live contest, got %d", len(live))
	}
	due, _ := contests.ListDue(ctx, start.Add(30*time.Second))
	if len(due) != 0 {
		t.Fatalf("contest should not be due yet, got %d", len(due))
	}

	after := start.Add(time.Minute)
	final, err := contests.Update(ctx, "MGTEST", func(c *domain.Contest) error {
		if !c.Finalize(after) {
			return errors.New("not due")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Winner == nil || *final.Winner != domain.UserA {
		t.Fatalf("expected Aditya to win, got %+v", final.Winner)
	}

	if _, err := contests.Get(ctx, "NOPE00"); !errors.Is(err, domain.ErrContestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	many, _ := questions.GetMany(ctx, []string{"q3", "missing", "q1"})
	if len(many) != 2 || many[0].ID != "q3" || many[1].ID != "q1" {
		t.Fatalf("expected questions in draw order, got %+v", many)
	}

	if _, err := questions.Update(ctx, "q2", func(q *domain.Question) error {
		q.SetSolved(domain.UserB, true)
		return nil
	}); err != nil {
		t.Fatalf("update question: %v", err)
	}
	unsolved, _ := questions.ListUnsolved(ctx)
	if len(unsolved) != 2 {
		t.Fatalf("expected 2 unsolved, got %d", len(unsolved))
	}
	all, _ := questions.List(ctx)
	if len(all) != 3 || all[0].ID != "q1" {
		t.Fatalf("expected insertion order, got %+v", all)
	}
}

func TestContestUpdateKeepsInterleavedSolves(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)
	contests := NewContestStore(db)

	start := time.Now().UTC().Truncate(time.Millisecond)
	if err := contests.Insert(ctx, domain.NewContest("RACE01", []string{"q1", "q2"}, 1, start)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Ananya's solve lands between Aditya's read and replace.
	calls := 0
	got, err := contests.Update(ctx, "RACE01", func(c *domain.Contest) error {
		calls++
		if calls == 1 {
			if _, err := contests.Update(ctx, "RACE01", func(inner *domain.Contest) error {
				return inner.ApplySolve(domain.UserB, "q2", true, start.Add(2*time.Second))
			}); err != nil {
				t.Fatalf("inner update: %v", err)
			}
		}
		return c.ApplySolve(domain.UserA, "q1", true, start.Add(3*time.Second))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the losing writer to retry once, got %d calls", calls)
	}
	stored, _ := contests.Get(ctx, "RACE01")
	if len(got.Solves) != 2 || len(stored.Solves) != 2 {
		t.Fatalf("expected both solves kept, returned %+v stored %+v", got.Solves, stored.Solves)
	}
	if stored.Points(domain.UserA) != 1 || stored.Points(domain.UserB) != 1 {
		t.Fatalf("unexpected points in %+v", stored.Solves)
	}
}

func TestFinalizeSeesSolveRecordedMidUpdate(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)
	contests := NewContestStore(db)

	start := time.Now().UTC().Truncate(time.Millisecond)
	contest := domain.NewContest("RACE02", []string{"q1"}, 1, start)
	if err := contest.ApplySolve(domain.UserA, "q1", true, start.Add(time.Second)); err != nil {
		t.Fatalf("seed solve: %v", err)
	}
	if err := contests.Insert(ctx, contest); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Aditya unsolves while the finalizer holds a stale copy.
	calls := 0
	final, err := contests.Update(ctx, "RACE02", func(c *domain.Contest) error {
		calls++
		if calls == 1 {
			if _, err := contests.Update(ctx, "RACE02", func(inner *domain.Contest) error {
				return inner.ApplySolve(domain.UserA, "q1", false, start.Add(2*time.Second))
			}); err != nil {
				t.Fatalf("inner update: %v", err)
			}
		}
		c.Finalize(start.Add(time.Minute))
		return nil
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if final.Status != domain.ContestFinished || final.Winner != nil || len(final.Solves) != 0 {
		t.Fatalf("winner computed from a stale log: %+v", final)
	}
}

func TestUpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)
	contests := NewContestStore(db)

	start := time.Now().UTC().Truncate(time.Millisecond)
	if err := contests.Insert(ctx, domain.NewContest("BUSY01", []string{"q1"}, 1, start)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	calls := 0
	_, err := contests.Update(ctx, "BUSY01", func(c *domain.Contest) error {
		calls++
		if _, err := contests.Update(ctx, "BUSY01", func(*domain.Contest) error { return nil }); err != nil {
			t.Fatalf("inner update: %v", err)
		}
		return c.ApplySolve(domain.UserA, "q1", true, start)
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != maxUpdateAttempts {
		t.Fatalf("expected %d attempts, got %d", maxUpdateAttempts, calls)
	}
	stored, _ := contests.Get(ctx, "BUSY01")
	if len(stored.Solves) != 0 {
		t.Fatalf("abandoned update was written: %+v", stored.Solves)
	}
}

func TestQuestionTogglesDoNotOverwriteEachOther(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)
	questions := NewQuestionStore(db)

	if err := questions.Create(ctx, domain.Question{ID: "q1", Question: "Two Sum"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	calls := 0
	if _, err := questions.Update(ctx, "q1", func(q *domain.Question) error {
		calls++
		if calls == 1 {
			if _, err := questions.Update(ctx, "q1", func(inner *domain.Question) error {
				inner.SetSolved(domain.UserB, true)
				return nil
			}); err != nil {
				t.Fatalf("inner update: %v", err)
			}
		}
		q.SetSolved(domain.UserA, true)
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := questions.GetMany(ctx, []string{"q1"})
	if len(got) != 1 || !got[0].SolvedByBoth() {
		t.Fatalf("expected both flags set, got %+v", got)
	}
}

func TestLegacyObjectIDDocuments(t *testing.T) {
	ctx := context.Background()
	db := startMongo(t, ctx)
	questions := NewQuestionStore(db)
	contests := NewContestStore(db)

	// Shape written by the mongoose models: ObjectId refs, no version field.
	qid := primitive.NewObjectID()
	start := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := db.Collection(questionsCollection).InsertOne(ctx, bson.M{
		"_id": qid, "company": "Acme", "question": "Legacy", "link": "", "level": "Easy",
		"solvedByAditya": false, "solvedByAnanya": false, "winner": nil, "__v": 0,
	}); err != nil {
		t.Fatalf("insert legacy question: %v", err)
	}
	if _, err := db.Collection(contestsCollection).InsertOne(ctx, bson.M{
		"code": "OLD001", "questions": bson.A{qid}, "startTime": start, "endTime": start.Add(time.Minute),
		"duration": 1, "status": "live", "winner": nil, "__v": 0,
		"solves": bson.A{bson.M{"_id": primitive.NewObjectID(), "user": "Ananya", "question": qid, "solved": true, "timestamp": start}},
	}); err != nil {
		t.Fatalf("insert legacy contest: %v", err)
	}

	got, err := questions.GetMany(ctx, []string{qid.Hex()})
	if err != nil || len(got) != 1 || got[0].ID != qid.Hex() {
		t.Fatalf("legacy question not loaded: %+v %v", got, err)
	}
	if _, err := questions.Update(ctx, qid.Hex(), func(q *domain.Question) error {
		q.SetSolved(domain.UserA, true)
		return nil
	}); err != nil {
		t.Fatalf("update legacy question: %v", err)
	}

	contest, err := contests.Update(ctx, "OLD001", func(c *domain.Contest) error {
		return c.ApplySolve(domain.UserA, qid.Hex(), true, start.Add(time.Second))
	})
	if err != nil {
		t.Fatalf("update legacy contest: %v", err)
	}
	if contest.QuestionIDs[0] != qid.Hex() || len(contest.Solves) != 2 {
		t.Fatalf("unexpected legacy contest %+v", contest)
	}

	var raw bson.M
	if err := db.Collection(contestsCollection).FindOne(ctx, bson.M{"code": "OLD001"}).Decode(&raw); err != nil {
		t.Fatalf("raw read: %v", err)
	}
	refs, _ := raw["questions"].(bson.A)
	if len(refs) != 1 || refs[0] != qid {
		t.Fatalf("question refs should stay ObjectIds, got %#v", raw["questions"])
	}
}

func startMongo(t *testing.T, ctx context.Context) *mongo.Database {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start mongo: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	client, err := Connect(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := Database(client, t.Name())
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return db
}
