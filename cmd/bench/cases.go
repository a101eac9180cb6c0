// README: Smoke cases for the relay API; quotes, the request lifecycle, concurrent accepts and DB/Redis checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"relay/internal/modules/distance"
	"relay/internal/modules/matching"
	"relay/internal/modules/quote"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
	// run keeps user ids unique across runs against a persistent store.
	run string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
		run:   fmt.Sprintf("%d", time.Now().UnixNano()),
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		start := time.Now()
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
		results = append(results, res)
		fmt.Printf("%-5s %s (%s)", res.Status, tc.Name, res.Latency.Round(time.Millisecond))
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) user(name string) string {
	return name + "-" + r.run
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres connect", Run: checkPostgres},
		{Name: "Env: Redis connect", Run: checkRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: checkTables},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			status, err := r.api(ctx, http.MethodGet, "/health", "", nil, nil)
			return expectStatus(status, err, http.StatusOK)
		}},

		{Name: "Quote: same city ride is 8 km", Run: func(ctx context.Context, r *Runner) Result {
			var res quote.Result
			status, err := r.api(ctx, http.MethodPost, "/api/quotes/ride", "", map[string]any{
				"origin":        "12 rue de la République, Lyon",
				"destination":   "5 avenue Jean Jaurès, Lyon",
				"vehicle_class": "car",
			}, &res)
			if out := expectStatus(status, err, http.StatusOK); out.Status != statusPass {
				return out
			}
			if res.Distance.Method != distance.MethodSameCity || res.Distance.Kilometers != 8 {
				return fail("got %s %.0f km", res.Distance.Method, res.Distance.Kilometers)
			}
			return pass("price=%s", res.Price.Price)
		}},
		{Name: "Quote: tiny parcel hits the minimum price", Run: func(ctx context.Context, r *Runner) Result {
			var res quote.Result
			status, err := r.api(ctx, http.MethodPost, "/api/quotes/package", "", map[string]any{
				"origin":      "8 rue Sainte-Catherine, Bordeaux",
				"destination": "8 rue Sainte-Catherine, Bordeaux",
				"weight_kg":   0.1,
			}, &res)
			if out := expectStatus(status, err, http.StatusOK); out.Status != statusPass {
				return out
			}
			if got := res.Price.Price.Amount.StringFixed(2); got != "5.00" {
				return fail("price=%s", got)
			}
			return pass("method=%s", res.Distance.Method)
		}},
		{Name: "Quote: unknown cities fall back to the default distance", Run: func(ctx context.Context, r *Runner) Result {
			var res quote.Result
			status, err := r.api(ctx, http.MethodPost, "/api/quotes/ride", "", map[string]any{
				"origin":      "Atlantis",
				"destination": "El Dorado",
			}, &res)
			if out := expectStatus(status, err, http.StatusOK); out.Status != statusPass {
				return out
			}
			if res.Distance.Method != distance.MethodDefaultFallback {
				return fail("method=%s", res.Distance.Method)
			}
			return pass("km=%.0f", res.Distance.Kilometers)
		}},
		{Name: "Quote: missing destination -> 400", Run: func(ctx context.Context, r *Runner) Result {
			status, err := r.api(ctx, http.MethodPost, "/api/quotes/ride", "", map[string]any{"origin": "Paris"}, nil)
			return expectStatus(status, err, http.StatusBadRequest)
		}},

		{Name: "Flow: publish without caller -> 401", Run: func(ctx context.Context, r *Runner) Result {
			status, err := r.api(ctx, http.MethodPost, "/api/resources", "", rideBody(2), nil)
			return expectStatus(status, err, http.StatusUnauthorized)
		}},
		{Name: "Flow: accept then cancel -> 409", Run: acceptThenCancel},
		{Name: "Flow: one conversation per pair", Run: conversationOncePerPair},
		{Name: "Concurrency: parallel accepts on a 2-seat ride", Run: concurrentAccept},

		{Name: "Perf: quote throughput", Run: func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, "/api/quotes/ride", map[string]any{"origin": "Paris", "destination": "Lyon"})
		}},
	}
}

func rideBody(seats int) map[string]any {
	return map[string]any{"kind": "RIDE", "origin": "Paris", "destination": "Lyon", "seats": seats, "vehicle_class": "car"}
}

func (r *Runner) api(ctx context.Context, method, path, user string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode: %w", err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (r *Runner) publishRide(ctx context.Context, owner string, seats int) (*matching.Resource, error) {
	var res matching.Resource
	status, err := r.api(ctx, http.MethodPost, "/api/resources", owner, rideBody(seats), &res)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("publish: status=%d", status)
	}
	return &res, nil
}

func (r *Runner) propose(ctx context.Context, resourceID, requester string, units int) (*matching.Request, error) {
	var res matching.Result
	status, err := r.api(ctx, http.MethodPost, "/api/resources/"+resourceID+"/requests", requester, map[string]any{"units": units}, &res)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("propose: status=%d", status)
	}
	return res.Request, nil
}

func (r *Runner) transition(ctx context.Context, requestID, actor, action string) (int, error) {
	return r.api(ctx, http.MethodPost, "/api/requests/"+requestID+"/"+action, actor, nil, nil)
}

func acceptThenCancel(ctx context.Context, r *Runner) Result {
	owner, rider := r.user("owner-a"), r.user("rider-a")
	ride, err := r.publishRide(ctx, owner, 3)
	if err != nil {
		return fail("%v", err)
	}
	req, err := r.propose(ctx, string(ride.ID), rider, 1)
	if err != nil {
		return fail("%v", err)
	}
	if status, err := r.transition(ctx, string(req.ID), owner, "accept"); err != nil || status != http.StatusOK {
		return fail("accept: status=%d err=%v", status, err)
	}
	status, err := r.transition(ctx, string(req.ID), rider, "cancel")
	return expectStatus(status, err, http.StatusConflict)
}

func conversationOncePerPair(ctx context.Context, r *Runner) Result {
	owner, rider := r.user("owner-c"), r.user("rider-c")
	for i := 0; i < 2; i++ {
		ride, err := r.publishRide(ctx, owner, 2)
		if err != nil {
			return fail("%v", err)
		}
		req, err := r.propose(ctx, string(ride.ID), rider, 1)
		if err != nil {
			return fail("%v", err)
		}
		if status, err := r.transition(ctx, string(req.ID), owner, "accept"); err != nil || status != http.StatusOK {
			return fail("accept %d: status=%d err=%v", i, status, err)
		}
	}
	var thread struct {
		Messages []json.RawMessage `json:"messages"`
	}
	status, err := r.api(ctx, http.MethodGet, "/api/conversations/"+owner, rider, nil, &thread)
	if out := expectStatus(status, err, http.StatusOK); out.Status != statusPass {
		return out
	}
	if len(thread.Messages) != 1 {
		return fail("messages=%d", len(thread.Messages))
	}
	return pass("")
}

// concurrentAccept proposes two full-ride requests and accepts them in parallel; exactly one may win.
func concurrentAccept(ctx context.Context, r *Runner) Result {
	owner := r.user("owner-r")
	ride, err := r.publishRide(ctx, owner, 2)
	if err != nil {
		return fail("%v", err)
	}
	n := r.cfg.Concurrency
	if n < 2 {
		n = 2
	}
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		req, err := r.propose(ctx, string(ride.ID), r.user(fmt.Sprintf("rider-r%d", i)), 2)
		if err != nil {
			return fail("%v", err)
		}
		ids = append(ids, string(req.ID))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succ, conflicts := 0, 0
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			status, err := r.transition(ctx, id, owner, "accept")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
			case status == http.StatusOK:
				succ++
			case status == http.StatusConflict:
				conflicts++
			}
		}(id)
	}
	wg.Wait()

	var final matching.Resource
	status, err := r.api(ctx, http.MethodGet, "/api/resources/"+string(ride.ID), "", nil, &final)
	if err != nil || status != http.StatusOK {
		return fail("get resource: status=%d err=%v", status, err)
	}
	if succ != 1 || conflicts != n-1 || final.AvailableSpace != 0 {
		return fail("success=%d conflicts=%d available=%d", succ, conflicts, final.AvailableSpace)
	}
	return pass("success=1 conflicts=%d status=%s", conflicts, final.Status)
}

func perfLoad(ctx context.Context, r *Runner, path string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := r.user(fmt.Sprintf("perf-%d", i))
			for time.Now().Before(end) && ctx.Err() == nil {
				status, err := r.api(ctx, http.MethodPost, path, user, payload, nil)
				mu.Lock()
				if err != nil || status >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if count == 0 {
		return fail("no requests completed")
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return pass("rps=%.1f errors=%d", rps, errCount)
}

func checkPostgres(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return fail("%v", err)
	}
	return pass("")
}

func checkRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusSkip, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fail("%v", err)
	}
	return pass("")
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return fail("db not configured")
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return fail("%v", err)
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return fail("%v", err)
		}
	}
	return pass("")
}

func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return fail("%v", err)
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return fail("%v", err)
		}
		if !exists {
			return fail("missing table: %s", t)
		}
	}
	return pass("%d tables", len(tables))
}

func expectStatus(status int, err error, want int) Result {
	if err != nil {
		return fail("%v", err)
	}
	if status != want {
		return fail("status=%d want=%d", status, want)
	}
	return pass("status=%d", status)
}

func pass(format string, args ...any) Result {
	return Result{Status: statusPass, Note: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Status: statusFail, Note: fmt.Sprintf(format, args...)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
