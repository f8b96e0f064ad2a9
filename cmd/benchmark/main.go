package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/punchamoorthee/spinledger/internal/api"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	workload    string
	secret      string
	accounts    int
)

var (
	totalRequests uint64
	spins200      uint64
	rejected422   uint64
	retry503      uint64
	limited429    uint64
	failOther     uint64
)

var betKinds = []map[string]any{
	{"kind": "single-number", "selector": 17},
	{"kind": "color", "selector": "red"},
	{"kind": "color", "selector": "black"},
	{"kind": "parity-odd"},
	{"kind": "parity-even"},
	{"kind": "high-range"},
	{"kind": "low-range"},
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.StringVar(&secret, "secret", "development-secret", "JWT signing secret shared with the API")
	flag.IntVar(&accounts, "accounts", 1000, "Number of seeded accounts (player-0001..)")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s", workload, concurrency, duration)

	tokens := make([]string, accounts+1)
	for i := 1; i <= accounts; i++ {
		t, err := api.NewToken(secret, fmt.Sprintf("player-%04d", i), duration+time.Minute)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		tokens[i] = t
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, tokens)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time, tokens []string) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		payload := map[string]any{"amount": "1.00"}
		for k, v := range betKinds[rand.IntN(len(betKinds))] {
			payload[k] = v
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest(http.MethodPost, targetURL+"/api/v1/spins", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tokens[pickAccount()])
		req.Header.Set("Idempotency-Key", uuid.NewString())

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddUint64(&spins200, 1)
		case http.StatusUnprocessableEntity:
			atomic.AddUint64(&rejected422, 1)
		case http.StatusServiceUnavailable:
			atomic.AddUint64(&retry503, 1)
		case http.StatusTooManyRequests:
			atomic.AddUint64(&limited429, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// pickAccount returns a 1-based account index. The hotspot workload sends
// 90% of spins to account 1 to stress per-account serialization.
func pickAccount() int {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		return 1
	}
	return rand.IntN(accounts) + 1
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&spins200)
	rej := atomic.LoadUint64(&rejected422)
	retry := atomic.LoadUint64(&retry503)
	lim := atomic.LoadUint64(&limited429)
	fErr := atomic.LoadUint64(&failOther)

	tps := float64(total) / d.Seconds()
	var retryRate float64
	if total > 0 {
		retryRate = float64(retry) / float64(total) * 100
	}

	results := map[string]any{
		"workload":       workload,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": tps,
		"spins_resolved": ok,
		"bets_rejected":  rej,
		"engine_retries": retry,
		"retry_rate_pct": retryRate,
		"rate_limited":   lim,
		"errors":         fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.Printf("write results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
