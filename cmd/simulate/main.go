package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Doctors      int
	PatientRatio float64
	AssignRatio  float64
	RemoveRatio  float64
	ReadRatio    float64
	Verify       bool
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	CreatePatient OperationMetrics
	Assign        OperationMetrics
	Remove        OperationMetrics
	ListPatients  OperationMetrics
	ListActive    OperationMetrics
	History       OperationMetrics
}

type Simulator struct {
	config  SimConfig
	api     *apiClient
	doctors []uuid.UUID
	metrics Metrics
}

// workerState is owned by a single worker goroutine.
type workerState struct {
	session     *session
	patients    []uuid.UUID
	assignments []uuid.UUID
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	_ = godotenv.Load()
	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d patient=%.2f assign=%.2f remove=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.PatientRatio, cfg.AssignRatio, cfg.RemoveRatio, cfg.ReadRatio)

	sim := &Simulator{
		config: cfg,
		api: &apiClient{
			baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
			http:    &http.Client{Timeout: 10 * time.Second},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	if cfg.Verify {
		result, err := verifyScenario(ctx, sim.api, faker)
		if err != nil {
			log.Fatalf("scenario: %v", err)
		}
		log.Printf("scenario: %d passed, %d failed", result.passed, result.failed)
		if result.failed > 0 {
			os.Exit(1)
		}
	}

	if cfg.Duration == 0 {
		return
	}

	if err := sim.setup(ctx, faker); err != nil {
		log.Fatalf("setup: %v", err)
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Doctors:      getInt("SIM_DOCTORS", 25),
		PatientRatio: getFloat("SIM_PATIENT_RATIO", 0.2),
		AssignRatio:  getFloat("SIM_ASSIGN_RATIO", 0.3),
		RemoveRatio:  getFloat("SIM_REMOVE_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		Verify:       getEnv("SIM_VERIFY", "true") == "true",
	}

	// Normalize ratios
	total := cfg.PatientRatio + cfg.AssignRatio + cfg.RemoveRatio + cfg.ReadRatio
	if total > 0 {
		cfg.PatientRatio /= total
		cfg.AssignRatio /= total
		cfg.RemoveRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("SIM_API_BASE_URL is required")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("SIM_DURATION must be >= 0")
	}
	if cfg.Doctors <= 0 {
		return fmt.Errorf("SIM_DOCTORS must be > 0")
	}
	return nil
}

// setup registers an admin user and creates the shared doctor pool every
// worker assigns from.
func (s *Simulator) setup(ctx context.Context, faker *gofakeit.Faker) error {
	admin, err := s.api.register(ctx, faker, "admin")
	if err != nil {
		return err
	}

	for i := 0; i < s.config.Doctors; i++ {
		var d record
		status, eb, err := s.api.do(ctx, http.MethodPost, "/api/doctors", admin.Access, fakeDoctor(faker, "", ""), &d)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("create doctor: status %d (%s)", status, eb)
		}
		s.doctors = append(s.doctors, d.ID)
	}

	log.Printf("created %d doctors", len(s.doctors))
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	seed := time.Now().UnixNano() + int64(workerID)
	rng := rand.New(rand.NewSource(seed))
	faker := gofakeit.New(uint64(seed))

	sess, err := s.api.register(ctx, faker, fmt.Sprintf("w%d", workerID))
	if err != nil {
		log.Printf("worker %d: %v", workerID, err)
		return
	}
	st := &workerState{session: sess}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.PatientRatio || len(st.patients) == 0:
				s.doCreatePatient(ctx, st, faker)
			case r < s.config.PatientRatio+s.config.AssignRatio:
				s.doAssign(ctx, st, rng)
			case r < s.config.PatientRatio+s.config.AssignRatio+s.config.RemoveRatio:
				s.doRemove(ctx, st, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doRead(ctx, st, "/api/patients", &s.metrics.ListPatients)
				case 1:
					s.doRead(ctx, st, "/api/mappings", &s.metrics.ListActive)
				case 2:
					s.doRead(ctx, st, "/api/mappings/history", &s.metrics.History)
				}
			}
		}
	}
}

func (s *Simulator) doCreatePatient(ctx context.Context, st *workerState, faker *gofakeit.Faker) {
	start := time.Now()

	var p record
	status, _, err := s.api.do(ctx, http.MethodPost, "/api/patients", st.session.Access, fakePatient(faker, ""), &p)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success {
		st.patients = append(st.patients, p.ID)
	}

	s.metrics.CreatePatient.Record(latency, success, status == http.StatusConflict)
}

// doAssign picks a random own patient and random doctor. Repeated pairs are
// expected and show up as conflicts.
func (s *Simulator) doAssign(ctx context.Context, st *workerState, rng *rand.Rand) {
	if len(st.patients) == 0 || len(s.doctors) == 0 {
		return
	}

	pair := map[string]string{
		"patient": st.patients[rng.Intn(len(st.patients))].String(),
		"doctor":  s.doctors[rng.Intn(len(s.doctors))].String(),
	}

	start := time.Now()

	var a record
	status, _, err := s.api.do(ctx, http.MethodPost, "/api/mappings", st.session.Access, pair, &a)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success {
		st.assignments = append(st.assignments, a.ID)
	}

	s.metrics.Assign.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doRemove(ctx context.Context, st *workerState, rng *rand.Rand) {
	if len(st.assignments) == 0 {
		return
	}

	idx := rng.Intn(len(st.assignments))
	id := st.assignments[idx]

	start := time.Now()

	status, _, err := s.api.do(ctx, http.MethodDelete, "/api/mappings/"+id.String(), st.session.Access, nil, nil)
	latency := time.Since(start)

	success := err == nil && status == http.StatusOK
	if success {
		st.assignments = append(st.assignments[:idx], st.assignments[idx+1:]...)
	}

	s.metrics.Remove.Record(latency, success, false)
}

func (s *Simulator) doRead(ctx context.Context, st *workerState, path string, om *OperationMetrics) {
	start := time.Now()

	status, _, err := s.api.do(ctx, http.MethodGet, path, st.session.Access, nil, nil)
	latency := time.Since(start)

	om.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Doctors: %d\n", len(s.doctors))
	fmt.Println()

	printOperationReport("Create patient", &s.metrics.CreatePatient)
	printOperationReport("Assign doctor", &s.metrics.Assign)
	printOperationReport("Remove assignment", &s.metrics.Remove)
	printOperationReport("List patients", &s.metrics.ListPatients)
	printOperationReport("List active assignments", &s.metrics.ListActive)
	printOperationReport("Assignment history", &s.metrics.History)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
