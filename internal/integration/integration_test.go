package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codeduel/internal/app"
	"codeduel/internal/domain"
	"codeduel/internal/infra/leetcode"
	pgstore "codeduel/internal/infra/postgres"
	infraredis "codeduel/internal/infra/redis"
	"codeduel/internal/jobs"
	transport "codeduel/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestContestEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)
	logger := zaptest.NewLogger(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := pgstore.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	upstream := fakeLeetCode(t)
	defer upstream.Close()

	clk := &clock{now: time.Now().UTC().Truncate(time.Microsecond)}
	questionStore := pgstore.NewQuestionStore(pool)
	questions := app.NewQuestionService(questionStore, logger)
	contests := app.NewContestService(pgstore.NewContestStore(pool), questionStore, logger, app.WithClock(clk.Now))
	profiles := app.NewProfileService(
		infraredis.NewProfileCache(redisClient, leetcode.NewClient(upstream.URL, 2*time.Second), time.Minute),
		map[domain.User]string{domain.UserA: "aditya_lc", domain.UserB: "ananya_lc"},
		logger,
	)

	api := httptest.NewServer(transport.NewRouter(transport.Handlers{
		Contests:  transport.NewContestHandler(contests, logger),
		Questions: transport.NewQuestionHandler(questions, logger),
		Profiles:  transport.NewProfileHandler(profiles, logger),
	}))
	defer api.Close()

	for i := 1; i <= 5; i++ {
		postJSON(t, api.URL+"/api/questions", domain.NewQuestion{
			Company:  "Acme",
			Question: fmt.Sprintf("Problem %d", i),
			Level:    "Medium",
		}, http.StatusCreated, nil)
	}

	var created domain.ContestDetail
	postJSON(t, api.URL+"/api/contests", map[string]int{"numQuestions": 2, "duration": 1}, http.StatusCreated, &created)
	if len(created.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(created.Questions))
	}

	solveURL := api.URL + "/api/contests/" + created.Code + "/solve"
	clk.Advance(10 * time.Second)
	postJSON(t, solveURL, map[string]any{"user": "Ananya", "questionId": created.QuestionIDs[0], "solved": true}, http.StatusOK, nil)
	clk.Advance(10 * time.Second)
	postJSON(t, solveURL, map[string]any{"user": "Aditya", "questionId": created.QuestionIDs[1], "solved": true}, http.StatusOK, nil)

	// Two instances share one Redis lock; only the holder sweeps.
	lockTTL := 5 * time.Second
	jobA := jobs.NewFinalizerJob(contests, infraredis.NewSweepLock(redisClient), jobs.FinalizerConfig{Interval: time.Second, LockTTL: lockTTL}, logger)
	jobB := jobs.NewFinalizerJob(contests, infraredis.NewSweepLock(redisClient), jobs.FinalizerConfig{Interval: time.Second, LockTTL: lockTTL}, logger)

	if n, err := jobA.RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("nothing should be due yet, got %d %v", n, err)
	}

	clk.Advance(time.Minute)
	var wg sync.WaitGroup
	results := make([]int, 2)
	for i, job := range []*jobs.FinalizerJob{jobA, jobB} {
		wg.Add(1)
		go func(i int, job *jobs.FinalizerJob) {
			defer wg.Done()
			n, err := job.RunOnce(ctx)
			if err != nil {
				t.Errorf("sweep %d: %v", i, err)
			}
			results[i] = n
		}(i, job)
	}
	wg.Wait()
	if results[0]+results[1] != 1 {
		t.Fatalf("expected exactly one finalization across instances, got %v", results)
	}

	var final domain.ContestDetail
	getJSON(t, api.URL+"/api/contests/"+created.Code, http.StatusOK, &final)
	if final.Status != domain.ContestFinished || final.Winner == nil {
		t.Fatalf("expected finished contest with a winner, got %+v", final.Contest)
	}
	// Equal points; Ananya's last solve came first.
	if *final.Winner != domain.UserB {
		t.Fatalf("expected Ananya to win on finish time, got %s", final.Winner)
	}

	postJSON(t, solveURL, map[string]any{"user": "Aditya", "questionId": created.QuestionIDs[0], "solved": true}, http.StatusConflict, nil)

	var both map[string]*domain.Profile
	getJSON(t, api.URL+"/api/profiles", http.StatusOK, &both)
	if both["Aditya"] == nil || both["Aditya"].Ranking != 4200 {
		t.Fatalf("expected Aditya profile, got %+v", both["Aditya"])
	}
	if both["Ananya"] != nil {
		t.Fatalf("unknown upstream user should map to null, got %+v", both["Ananya"])
	}
	if keys, _ := redisClient.Keys(ctx, "profile:*").Result(); len(keys) != 1 {
		t.Fatalf("expected one cached profile, got %v", keys)
	}
}

func fakeLeetCode(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Variables struct {
				Username string `json:"username"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if body.Variables.Username != "aditya_lc" {
			_, _ = w.Write([]byte(`{"data":{"matchedUser":null}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"matchedUser":{"username":"aditya_lc","profile":{"userAvatar":"a.png","countryName":"India","ranking":4200,"realName":"Aditya"}}}}`))
	}))
}

func postJSON(t *testing.T, url string, body any, wantStatus int, out any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	readJSON(t, resp, wantStatus, out)
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	readJSON(t, resp, wantStatus, out)
}

func readJSON(t *testing.T, resp *http.Response, wantStatus int, out any) {
	t.Helper()
	if resp.StatusCode != wantStatus {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		t.Fatalf("%s %s: status %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, wantStatus, buf.String())
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "duel", "POSTGRES_PASSWORD": "duelpass", "POSTGRES_DB": "codeduel"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://duel:duelpass@%s:%s/codeduel?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
