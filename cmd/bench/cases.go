// README: Bench cases; dialog scenarios, admin APIs, DB/Redis checks and load against a running server.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const fullMessage = "Хочу из Минска в Москву 15.08 на поезде для 2 пассажиров"

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
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
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
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

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables from migrations/0001_init.sql",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		httpCaseMethod("API: health", http.MethodGet, base+"/health", nil, []int{200}),

		// Dialog
		dialogCase("Dialog: one message fills every slot", []dialogStep{
			{Message: fullMessage, Route: "all_filled_transition", Contains: "Всё верно?"},
		}),
		dialogCase("Dialog: yes creates a booking", []dialogStep{
			{Message: fullMessage, Route: "all_filled_transition"},
			{Message: "да", Route: "awaiting_final_confirmation", Finished: true},
		}),
		dialogCase("Dialog: correction changes only the date", []dialogStep{
			{Message: fullMessage},
			{Message: "нет", Route: "awaiting_final_confirmation", Contains: "Что вы хотите исправить?"},
			{Message: "дата 20.09", Route: "all_filled_transition", Contains: "Дата: 20-09-"},
		}),
		dialogCase("Dialog: fuzzy city asks for confirmation", []dialogStep{
			{Message: "из Мнск", Route: "awaiting_city_confirmation", Contains: "Минск"},
			{Message: "да", Route: "asking_slot"},
		}),
		dialogCase("Dialog: reset clears the order", []dialogStep{
			{Message: fullMessage},
			{Message: "Начать заново", Route: "reset"},
		}),
		httpCase("Dialog: missing message -> 400", base+"/api/dialog/message", map[string]any{}, []int{400}),
		httpCase("Dialog: blank message -> 400", base+"/api/dialog/message", map[string]any{"message": "   "}, []int{400}),
		{
			Name:  "Dialog: booking row persisted",
			Focus: "yes writes exactly one bookings row",
			Run:   bookingPersisted,
		},

		// Admin
		r.adminCase("Bookings: create (valid)", http.MethodPost, base+"/api/bookings", map[string]any{
			"from_city":      "Минск",
			"to_city":        "Брест",
			"date":           "01-09-2026",
			"passengers":     1,
			"transport_type": "bus",
		}, []int{201}),
		r.adminCase("Bookings: too many passengers -> 400", http.MethodPost, base+"/api/bookings", map[string]any{
			"from_city":      "Минск",
			"to_city":        "Брест",
			"date":           "01-09-2026",
			"passengers":     11,
			"transport_type": "bus",
		}, []int{400}),
		r.adminCase("Bookings: bad date -> 400", http.MethodPost, base+"/api/bookings", map[string]any{
			"from_city":      "Минск",
			"to_city":        "Брест",
			"date":           "2026-09-01",
			"passengers":     1,
			"transport_type": "bus",
		}, []int{400}),
		r.adminCase("Bookings: list", http.MethodGet, base+"/api/bookings", nil, []int{200}),
		r.adminCase("Sessions: unknown id -> 404", http.MethodGet, base+"/api/sessions/00000000-0000-0000-0000-000000000000", nil, []int{404}),
		httpCaseMethod("Trips: search", http.MethodGet, base+"/api/trips?"+url.Values{
			"departure_city": {"Минск"},
			"departure_date": {"2026-08-15"},
		}.Encode(), nil, []int{200}),
		httpCaseMethod("Trips: bad date -> 400", http.MethodGet, base+"/api/trips?departure_date=15.08.2026", nil, []int{400}),

		// Concurrency
		{
			Name:  "Concurrency: turns on one session",
			Focus: "no 5xx, lock released afterwards",
			Run:   concurrentTurns,
		},

		// Performance
		{
			Name:  "Perf: dialog message throughput",
			Focus: "new session per request",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/dialog/message", map[string]any{"message": fullMessage})
			},
		},
	}
}

type dialogStep struct {
	Message  string
	Route    string
	Contains string
	Finished bool
}

type dialogReply struct {
	SessionID string `json:"session_id"`
	Route     string `json:"route"`
	Response  string `json:"response"`
	Finished  bool   `json:"finished"`
	BookingID string `json:"booking_id"`
}

func dialogCase(name string, steps []dialogStep) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Dialog",
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			sessionID := ""
			for i, step := range steps {
				reply, status, err := r.sendTurn(ctx, sessionID, step.Message)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("step %d status=%d", i+1, status)}
				}
				if step.Route != "" && reply.Route != step.Route {
					return Result{Status: "FAIL", Note: fmt.Sprintf("step %d route=%s want %s", i+1, reply.Route, step.Route)}
				}
				if step.Contains != "" && !strings.Contains(reply.Response, step.Contains) {
					return Result{Status: "FAIL", Note: fmt.Sprintf("step %d response %q", i+1, reply.Response)}
				}
				if step.Finished && (!reply.Finished || reply.BookingID == "") {
					return Result{Status: "FAIL", Note: fmt.Sprintf("step %d not finished", i+1)}
				}
				sessionID = reply.SessionID
			}
			return Result{Status: "PASS", Latency: time.Since(start)}
		},
	}
}

func (r *Runner) sendTurn(ctx context.Context, sessionID, message string) (*dialogReply, int, error) {
	body := map[string]any{"message": message}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/api/dialog/message", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	var reply dialogReply
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return nil, resp.StatusCode, err
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return &reply, resp.StatusCode, nil
}

func bookingPersisted(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: "SKIP", Note: "db not configured"}
	}
	first, status, err := r.sendTurn(ctx, "", fullMessage)
	if err != nil || status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d err=%v", status, err)}
	}
	done, status, err := r.sendTurn(ctx, first.SessionID, "да")
	if err != nil || status != http.StatusOK || done.BookingID == "" {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d err=%v", status, err)}
	}
	var from, to string
	var passengers int
	err = r.db.QueryRow(ctx,
		"SELECT from_city, to_city, passengers FROM bookings WHERE id=$1", done.BookingID,
	).Scan(&from, &to, &passengers)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if from != "Минск" || to != "Москва" || passengers != 2 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("row=%s/%s/%d", from, to, passengers)}
	}
	return Result{Status: "PASS", Note: "booking_id=" + done.BookingID}
}

func (r *Runner) adminCase(name, method, url string, body any, okStatuses []int) TestCase {
	tc := httpCaseMethod(name, method, url, body, okStatuses)
	tc.Focus = "Admin API"
	run := tc.Run
	tc.Run = func(ctx context.Context, r *Runner) Result {
		return run(withAdminToken(ctx, r.cfg.AdminToken), r)
	}
	return tc
}

type adminTokenKey struct{}

func withAdminToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, adminTokenKey{}, token)
}

func httpCase(name, url string, body any, okStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = bytes.NewReader(b)
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			if token, ok := ctx.Value(adminTokenKey{}).(string); ok {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func concurrentTurns(ctx context.Context, r *Runner) Result {
	first, status, err := r.sendTurn(ctx, "", "из Минска")
	if err != nil || status != http.StatusOK {
		return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d err=%v", status, err)}
	}

	wg := sync.WaitGroup{}
	ok, busy, failed := 0, 0, 0
	mu := sync.Mutex{}
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, status, err := r.sendTurn(ctx, first.SessionID, "в Москву")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil || status >= 500:
				failed++
			case status == http.StatusConflict:
				busy++
			default:
				ok++
			}
		}()
	}
	wg.Wait()

	if failed > 0 {
		return Result{Status: "FAIL", Note: fmt.Sprintf("ok=%d busy=%d failed=%d", ok, busy, failed)}
	}
	if r.redis != nil {
		n, err := r.redis.Exists(ctx, "dialog:session:"+first.SessionID+":lock").Result()
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if n != 0 {
			return Result{Status: "FAIL", Note: "session lock still held"}
		}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("ok=%d busy=%d", ok, busy)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				if resp.StatusCode >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
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
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
