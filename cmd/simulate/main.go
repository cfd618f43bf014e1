package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	StatusRatio  float64
	ReadRatio    float64
	DaysAhead    int
	Email        string
	Password     string
}

// DataPool is what workers draw booking payloads from.
type DataPool struct {
	VisitTypes []appointment.VisitType
	TimeSlots  []string
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	token   string
	ids     *IDLedger
	metrics Metrics
}

func main() {
	if err := logger.InitLogger("info"); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Errorw("invalid config", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	log.Infow("simulator starting",
		"api", cfg.APIBaseURL,
		"duration", cfg.Duration,
		"workers", cfg.Workers,
		"booking", cfg.BookingRatio,
		"status", cfg.StatusRatio,
		"read", cfg.ReadRatio,
	)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		ids:    NewIDLedger(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sim.login(ctx); err != nil {
		log.Errorw("login failed", "email", cfg.Email, "error", err)
		logger.Sync()
		os.Exit(1)
	}

	pool, err := sim.loadDataPool(ctx)
	if err != nil {
		log.Errorw("load catalog failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	sim.pool = pool
	log.Infow("catalog loaded", "visit_types", len(pool.VisitTypes), "time_slots", len(pool.TimeSlots))

	sim.Run()
	sim.PrintReport()

	if dups := sim.ids.Duplicates(); len(dups) > 0 {
		log.Errorw("appointment ids were handed out more than once", "count", len(dups), "ids", dups)
		logger.Sync()
		os.Exit(2)
	}
}

func loadConfig() SimConfig {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SIM")
	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("DURATION", 30*time.Second)
	v.SetDefault("WORKERS", 10)
	v.SetDefault("BOOKING_RATIO", 0.6)
	v.SetDefault("STATUS_RATIO", 0.1)
	v.SetDefault("READ_RATIO", 0.3)
	v.SetDefault("DAYS_AHEAD", 30)

	cfg := SimConfig{
		APIBaseURL:   v.GetString("API_BASE_URL"),
		Duration:     v.GetDuration("DURATION"),
		Workers:      v.GetInt("WORKERS"),
		BookingRatio: v.GetFloat64("BOOKING_RATIO"),
		StatusRatio:  v.GetFloat64("STATUS_RATIO"),
		ReadRatio:    v.GetFloat64("READ_RATIO"),
		DaysAhead:    v.GetInt("DAYS_AHEAD"),
		Email:        v.GetString("EMAIL"),
		Password:     v.GetString("PASSWORD"),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return fmt.Errorf("SIM_EMAIL and SIM_PASSWORD of a staff account are required")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.DaysAhead <= 0 {
		return fmt.Errorf("SIM_DAYS_AHEAD must be > 0")
	}
	return nil
}

func (s *Simulator) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"email": s.config.Email, "password": s.config.Password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var tok struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tok.Token == "" {
		return errors.New("login returned an empty token")
	}
	s.token = tok.Token
	return nil
}

func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/catalog", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cat appointment.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	pool := &DataPool{TimeSlots: cat.TimeSlots}
	for _, vt := range cat.VisitTypes {
		if len(vt.Services) > 0 {
			pool.VisitTypes = append(pool.VisitTypes, vt)
		}
	}

	if len(pool.VisitTypes) == 0 {
		return nil, fmt.Errorf("catalog has no bookable visit types")
	}
	if len(pool.TimeSlots) == 0 {
		return nil, fmt.Errorf("catalog has no time slots")
	}
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	logger.L().Infow("starting simulation", "duration", s.config.Duration, "workers", s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	logger.L().Infow("simulation complete", "appointments", s.ids.Len())
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := faker.Float64()
			if r < s.config.BookingRatio {
				s.doBooking(ctx, faker)
			} else if r < s.config.BookingRatio+s.config.StatusRatio {
				s.doStatus(ctx, faker)
			} else {
				switch faker.Number(0, 2) {
				case 0:
					s.doReadByID(ctx, faker)
				case 1:
					s.doListByDate(ctx, faker)
				case 2:
					s.doDayStats(ctx, faker)
				}
			}
		}
	}
}

func (s *Simulator) randomDay(faker *gofakeit.Faker) time.Time {
	return time.Now().AddDate(0, 0, faker.Number(1, s.config.DaysAhead))
}

// send issues an authenticated JSON request and returns the status code and body.
func (s *Simulator) send(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func (s *Simulator) doBooking(ctx context.Context, faker *gofakeit.Faker) {
	vt := s.pool.VisitTypes[faker.Number(0, len(s.pool.VisitTypes)-1)]

	in := appointment.BookingInput{
		FirstName:   faker.FirstName(),
		LastName:    faker.LastName(),
		VisitType:   vt.Name,
		ServiceType: vt.Services[faker.Number(0, len(vt.Services)-1)],
		Date:        s.randomDay(faker).Format("2006-01-02"),
		Time:        s.pool.TimeSlots[faker.Number(0, len(s.pool.TimeSlots)-1)],
	}

	start := time.Now()
	code, body, err := s.send(ctx, http.MethodPost, "/appointments", in)
	latency := time.Since(start)

	if ctx.Err() != nil {
		return
	}

	success := false
	conflict := false
	if err == nil {
		switch code {
		case http.StatusCreated:
			var appt struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(body, &appt) == nil && appt.ID != "" {
				s.ids.Add(appt.ID)
				success = true
			}
		case http.StatusConflict:
			conflict = true
		default:
			logger.L().Debugw("booking rejected", "status", code, "body", string(body))
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doStatus(ctx context.Context, faker *gofakeit.Faker) {
	id, ok := s.ids.Pick(faker.Number(0, 1<<30))
	if !ok {
		return
	}

	statuses := []string{appointment.StatusOnGoing, appointment.StatusCompleted, appointment.StatusHighRisk}
	payload := map[string]string{"status": statuses[faker.Number(0, len(statuses)-1)]}

	start := time.Now()
	code, _, err := s.send(ctx, http.MethodPut, "/appointments/"+id+"/status", payload)
	latency := time.Since(start)

	if ctx.Err() != nil {
		return
	}
	s.metrics.Status.Record(latency, err == nil && code == http.StatusOK, code == http.StatusConflict)
}

func (s *Simulator) doReadByID(ctx context.Context, faker *gofakeit.Faker) {
	id, ok := s.ids.Pick(faker.Number(0, 1<<30))
	if !ok {
		return
	}

	start := time.Now()
	code, _, err := s.send(ctx, http.MethodGet, "/appointments/"+id, nil)
	latency := time.Since(start)

	if ctx.Err() != nil {
		return
	}
	s.metrics.ReadByID.Record(latency, err == nil && code == http.StatusOK, false)
}

func (s *Simulator) doListByDate(ctx context.Context, faker *gofakeit.Faker) {
	day := s.randomDay(faker).Format("2006-01-02")

	start := time.Now()
	code, _, err := s.send(ctx, http.MethodGet, "/appointments?sort=Newest&date="+day, nil)
	latency := time.Since(start)

	if ctx.Err() != nil {
		return
	}
	s.metrics.ListByDate.Record(latency, err == nil && code == http.StatusOK, false)
}

func (s *Simulator) doDayStats(ctx context.Context, faker *gofakeit.Faker) {
	day := s.randomDay(faker).Format("2006-01-02")

	start := time.Now()
	code, _, err := s.send(ctx, http.MethodGet, "/appointments/stats/day?date="+day, nil)
	latency := time.Since(start)

	if ctx.Err() != nil {
		return
	}
	s.metrics.DayStats.Record(latency, err == nil && code == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Appointments created: %d\n", s.ids.Len())
	if dups := s.ids.Duplicates(); len(dups) > 0 {
		fmt.Printf("DUPLICATE IDS: %d %v\n", len(dups), dups)
	} else {
		fmt.Println("Duplicate ids: none")
	}
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status update", &s.metrics.Status)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by date", &s.metrics.ListByDate)
	printOperationReport("Day stats", &s.metrics.DayStats)
}
