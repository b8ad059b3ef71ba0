package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	sdktypes "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/stakevault/sdk"
)

// Config is the load test configuration
type Config struct {
	BaseURL       string
	Concurrency   int
	Duration      time.Duration
	RampUp        time.Duration
	Denom         string
	Admin         string
	MintAuthority string
	WithdrawRatio float64
}

// Results accumulates request outcomes across workers
type Results struct {
	TotalRequests     int64
	SuccessRequests   int64
	FailedRequests    int64
	TotalLatency      int64 // microseconds
	MinLatency        int64
	MaxLatency        int64
	Latencies         []int64
	StatusCodes       map[int]int64
	Errors            map[string]int64
	StartTime         time.Time
	EndTime           time.Time
	RequestsPerSecond float64
	mu                sync.Mutex
}

// worker state: one staker with its token account
type staker struct {
	client  *sdk.Client
	account string
}

// LoadTester drives deposits and withdrawals against a running API server
type LoadTester struct {
	config   *Config
	results  *Results
	client   *sdk.Client
	feeVault string
	wg       sync.WaitGroup
	stopCh   chan struct{}
}

func NewLoadTester(config *Config) *LoadTester {
	hc := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        1000,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &LoadTester{
		config: config,
		results: &Results{
			MinLatency:  int64(^uint64(0) >> 1),
			StatusCodes: make(map[int]int64),
			Errors:      make(map[string]int64),
		},
		client: sdk.NewClient(config.BaseURL, sdk.WithHTTPClient(hc)),
		stopCh: make(chan struct{}),
	}
}

// setup initializes the vault if needed and opens the fee vault account
func (lt *LoadTester) setup(ctx context.Context) error {
	admin := lt.client.As(lt.config.Admin)
	if _, err := admin.Initialize(ctx, lt.config.Denom, 50); err != nil && statusOf(err) != http.StatusConflict {
		return fmt.Errorf("initialize: %w", err)
	}
	cfg, err := admin.Config(ctx)
	if err != nil {
		return err
	}
	acc, err := lt.client.As(cfg.Admin).CreateAccount(ctx, "", lt.config.Denom)
	if err != nil && statusOf(err) != http.StatusConflict {
		return fmt.Errorf("fee vault: %w", err)
	}
	if acc != nil {
		lt.feeVault = acc.Address
	}
	return nil
}

func (lt *LoadTester) newStaker(ctx context.Context, id int) (*staker, error) {
	addr := sdktypes.AccAddress([]byte(fmt.Sprintf("loadtest-staker-%04d", id))).String()
	c := lt.client.As(addr)

	acc, err := c.CreateAccount(ctx, "", lt.config.Denom)
	if err != nil {
		return nil, err
	}
	if _, err := lt.client.As(lt.config.MintAuthority).Mint(ctx, acc.Address, 1_000_000_000); err != nil {
		return nil, err
	}
	return &staker{client: c, account: acc.Address}, nil
}

func (lt *LoadTester) Run(ctx context.Context) error {
	fmt.Println("StakeVault API load test")
	fmt.Printf("  Base URL:     %s\n", lt.config.BaseURL)
	fmt.Printf("  Concurrency:  %d workers\n", lt.config.Concurrency)
	fmt.Printf("  Duration:     %v\n", lt.config.Duration)
	fmt.Printf("  Denom:        %s\n", lt.config.Denom)
	fmt.Println()

	if err := lt.setup(ctx); err != nil {
		return err
	}
	if lt.feeVault == "" {
		return errors.New("fee vault account already exists; restart the server for a clean run")
	}

	stakers := make([]*staker, lt.config.Concurrency)
	for i := range stakers {
		s, err := lt.newStaker(ctx, i)
		if err != nil {
			return fmt.Errorf("staker %d: %w", i, err)
		}
		stakers[i] = s
	}

	lt.results.StartTime = time.Now()

	step := lt.config.RampUp / time.Duration(len(stakers))
	for i, s := range stakers {
		lt.wg.Add(1)
		go lt.worker(ctx, s)
		fmt.Printf("\r  Workers: %d/%d", i+1, len(stakers))
		time.Sleep(step)
	}
	fmt.Println()

	go lt.reportProgress()

	time.Sleep(lt.config.Duration)
	close(lt.stopCh)
	lt.wg.Wait()

	lt.results.EndTime = time.Now()
	lt.calculateMetrics()
	lt.printResults()
	return nil
}

func (lt *LoadTester) worker(ctx context.Context, s *staker) {
	defer lt.wg.Done()

	staked := false
	for {
		select {
		case <-lt.stopCh:
			return
		default:
		}

		start := time.Now()
		var err error
		if staked && rand.Float64() < lt.config.WithdrawRatio {
			_, err = s.client.Withdraw(ctx, s.account, lt.feeVault)
			if err == nil {
				staked = false
			}
		} else {
			_, err = s.client.Deposit(ctx, s.account, uint64(rand.Intn(100)+1))
			if err == nil {
				staked = true
			}
		}
		lt.record(time.Since(start).Microseconds(), err)

		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
	}
}

func statusOf(err error) int {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func (lt *LoadTester) record(latency int64, err error) {
	atomic.AddInt64(&lt.results.TotalRequests, 1)
	atomic.AddInt64(&lt.results.TotalLatency, latency)

	status := http.StatusOK
	if err != nil {
		atomic.AddInt64(&lt.results.FailedRequests, 1)
		status = statusOf(err)
	} else {
		atomic.AddInt64(&lt.results.SuccessRequests, 1)
	}

	lt.results.mu.Lock()
	defer lt.results.mu.Unlock()
	lt.results.Latencies = append(lt.results.Latencies, latency)
	if latency < lt.results.MinLatency {
		lt.results.MinLatency = latency
	}
	if latency > lt.results.MaxLatency {
		lt.results.MaxLatency = latency
	}
	lt.results.StatusCodes[status]++

	var apiErr *sdk.APIError
	switch {
	case errors.As(err, &apiErr):
		lt.results.Errors[apiErr.Code]++
	case err != nil:
		lt.results.Errors["network_error"]++
	}
}

func (lt *LoadTester) reportProgress() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-lt.stopCh:
			return
		case <-ticker.C:
			total := atomic.LoadInt64(&lt.results.TotalRequests)
			failed := atomic.LoadInt64(&lt.results.FailedRequests)
			rps := float64(total) / time.Since(lt.results.StartTime).Seconds()
			fmt.Printf("\r  Progress: %d requests (%.0f/s), Failed: %d", total, rps, failed)
		}
	}
}

func (lt *LoadTester) calculateMetrics() {
	elapsed := lt.results.EndTime.Sub(lt.results.StartTime).Seconds()
	lt.results.RequestsPerSecond = float64(lt.results.TotalRequests) / elapsed

	sort.Slice(lt.results.Latencies, func(i, j int) bool {
		return lt.results.Latencies[i] < lt.results.Latencies[j]
	})
}

// getPercentile returns the p quantile latency in milliseconds
func (lt *LoadTester) getPercentile(p float64) float64 {
	if len(lt.results.Latencies) == 0 {
		return 0
	}
	index := int(float64(len(lt.results.Latencies)) * p)
	if index >= len(lt.results.Latencies) {
		index = len(lt.results.Latencies) - 1
	}
	return float64(lt.results.Latencies[index]) / 1000
}

func (lt *LoadTester) avgLatency() float64 {
	if lt.results.TotalRequests == 0 {
		return 0
	}
	return float64(lt.results.TotalLatency) / float64(lt.results.TotalRequests) / 1000
}

func (lt *LoadTester) printResults() {
	fmt.Println()
	fmt.Println()
	fmt.Println("── Request Statistics ─────────────────────────────────────────")
	fmt.Printf("  Duration:           %v\n", lt.results.EndTime.Sub(lt.results.StartTime).Round(time.Millisecond))
	fmt.Printf("  Total Requests:     %d\n", lt.results.TotalRequests)
	fmt.Printf("  Successful:         %d\n", lt.results.SuccessRequests)
	fmt.Printf("  Failed:             %d\n", lt.results.FailedRequests)
	fmt.Printf("  Requests/Second:    %.2f\n", lt.results.RequestsPerSecond)
	fmt.Println()

	fmt.Println("── Latency Statistics (ms) ────────────────────────────────────")
	fmt.Printf("  Min:                %.2f ms\n", float64(lt.results.MinLatency)/1000)
	fmt.Printf("  Max:                %.2f ms\n", float64(lt.results.MaxLatency)/1000)
	fmt.Printf("  Average:            %.2f ms\n", lt.avgLatency())
	fmt.Printf("  P50 (Median):       %.2f ms\n", lt.getPercentile(0.50))
	fmt.Printf("  P95:                %.2f ms\n", lt.getPercentile(0.95))
	fmt.Printf("  P99:                %.2f ms\n", lt.getPercentile(0.99))
	fmt.Println()

	fmt.Println("── Status Code Distribution ───────────────────────────────────")
	for code, count := range lt.results.StatusCodes {
		fmt.Printf("  HTTP %d:             %d\n", code, count)
	}

	if len(lt.results.Errors) > 0 {
		fmt.Println()
		fmt.Println("── Error Distribution ─────────────────────────────────────────")
		for errType, count := range lt.results.Errors {
			fmt.Printf("  %s: %d\n", errType, count)
		}
	}
	fmt.Println()
}

func (lt *LoadTester) SaveReport(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	report := map[string]interface{}{
		"test_config": map[string]interface{}{
			"base_url":       lt.config.BaseURL,
			"concurrency":    lt.config.Concurrency,
			"duration":       lt.config.Duration.String(),
			"denom":          lt.config.Denom,
			"withdraw_ratio": lt.config.WithdrawRatio,
		},
		"summary": map[string]interface{}{
			"total_requests":      lt.results.TotalRequests,
			"success_requests":    lt.results.SuccessRequests,
			"failed_requests":     lt.results.FailedRequests,
			"requests_per_second": lt.results.RequestsPerSecond,
		},
		"latency": map[string]interface{}{
			"min_ms": float64(lt.results.MinLatency) / 1000,
			"max_ms": float64(lt.results.MaxLatency) / 1000,
			"avg_ms": lt.avgLatency(),
			"p50_ms": lt.getPercentile(0.50),
			"p95_ms": lt.getPercentile(0.95),
			"p99_ms": lt.getPercentile(0.99),
		},
		"status_codes": lt.results.StatusCodes,
		"errors":       lt.results.Errors,
		"timestamp":    time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	concurrency := flag.Int("c", 20, "Number of concurrent stakers")
	duration := flag.Duration("d", 30*time.Second, "Test duration")
	rampUp := flag.Duration("ramp", 2*time.Second, "Ramp-up time")
	denom := flag.String("denom", "ustake", "Vault denom")
	admin := flag.String("admin", "", "Bootstrap admin the server was started with")
	mint := flag.String("mint-authority", "", "Mint authority the server was started with")
	withdrawRatio := flag.Float64("withdraw", 0.1, "Fraction of requests that withdraw")
	outputFile := flag.String("o", "", "Output JSON report file")
	flag.Parse()

	if *admin == "" || *mint == "" || *concurrency < 1 {
		fmt.Fprintln(os.Stderr, "-admin, -mint-authority and a positive -c are required")
		os.Exit(2)
	}

	tester := NewLoadTester(&Config{
		BaseURL:       *baseURL,
		Concurrency:   *concurrency,
		Duration:      *duration,
		RampUp:        *rampUp,
		Denom:         *denom,
		Admin:         *admin,
		MintAuthority: *mint,
		WithdrawRatio: *withdrawRatio,
	})
	if err := tester.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "load test failed: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := tester.SaveReport(*outputFile); err != nil {
			fmt.Printf("Failed to save report: %v\n", err)
		} else {
			fmt.Printf("Report saved to: %s\n", *outputFile)
		}
	}
}
