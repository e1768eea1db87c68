package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/auth"
	"github.com/hackgods/clinic-records/internal/clinic"
	"github.com/hackgods/clinic-records/internal/db"
	"github.com/hackgods/clinic-records/internal/logging"
)

const demoPassword = "demo-password"

var specialities = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	_ = godotenv.Load()

	logger, err := logging.New(getEnv("APP_ENV", "dev"), "seed")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.ApplySchema(ctx, pool); err != nil {
		logger.Fatal("apply schema", zap.Error(err))
	}

	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	s := &seeder{
		faker:  faker,
		users:  auth.NewPgUserRepository(pool),
		clinic: clinic.NewService(clinic.NewPgRepository(pool), zap.NewNop()),
		log:    logger,
		runID:  strings.ToLower(faker.LetterN(6)),
	}

	if err := s.run(ctx, pool,
		getInt("SEED_USERS", 3),
		getInt("SEED_DOCTORS", 20),
		getInt("SEED_PATIENTS_PER_USER", 25),
	); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	logger.Info("seed complete")
}

type seeder struct {
	faker  *gofakeit.Faker
	users  *auth.PgUserRepository
	clinic *clinic.Service
	log    *zap.Logger
	runID  string
}

func (s *seeder) run(ctx context.Context, pool *pgxpool.Pool, users, doctors, patientsPerUser int) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	identities := make([]clinic.Identity, 0, users)
	for i := 0; i < users; i++ {
		u, err := s.users.CreateUser(ctx, auth.User{
			ID:           uuid.New(),
			Email:        fmt.Sprintf("demo%d-%s@clinic.test", i+1, s.runID),
			FirstName:    s.faker.FirstName(),
			LastName:     s.faker.LastName(),
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		identities = append(identities, clinic.Identity{UserID: u.ID})
		s.log.Info("user seeded", zap.String("email", u.Email), zap.String("password", demoPassword))
	}
	if len(identities) == 0 {
		return nil
	}

	doctorIDs, err := s.seedDoctors(ctx, identities, doctors)
	if err != nil {
		return err
	}

	for _, id := range identities {
		if err := s.seedPatients(ctx, id, doctorIDs, patientsPerUser); err != nil {
			return err
		}
	}

	var total int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM assignments`).Scan(&total); err != nil {
		return fmt.Errorf("count assignments: %w", err)
	}
	s.log.Info("assignments in store", zap.Int("total", total))
	return nil
}

func (s *seeder) seedDoctors(ctx context.Context, owners []clinic.Identity, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		years := s.faker.Number(0, 40)
		fee := decimal.NewFromFloat(s.faker.Price(40, 400)).Round(2)

		d, err := s.clinic.CreateDoctor(ctx, owners[i%len(owners)], clinic.DoctorInput{
			Name:              "Dr. " + s.faker.Name(),
			Speciality:        specialities[s.faker.Number(0, len(specialities)-1)],
			Phone:             s.faker.Phone(),
			Email:             fmt.Sprintf("doctor%d-%s@clinic.test", i+1, s.runID),
			LicenseNumber:     fmt.Sprintf("LIC-%s-%05d", strings.ToUpper(s.runID), i+1),
			YearsOfExperience: &years,
			ConsultationFee:   &fee,
		})
		if err != nil {
			return nil, fmt.Errorf("create doctor: %w", err)
		}
		ids = append(ids, d.ID)
	}
	s.log.Info("doctors seeded", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *seeder) seedPatients(ctx context.Context, owner clinic.Identity, doctorIDs []uuid.UUID, count int) error {
	genders := []clinic.Gender{clinic.GenderMale, clinic.GenderFemale, clinic.GenderOther}

	for i := 0; i < count; i++ {
		age := s.faker.Number(0, 95)
		addr := s.faker.Address()

		p, err := s.clinic.CreatePatient(ctx, owner, clinic.PatientInput{
			Name:    s.faker.Name(),
			Email:   fmt.Sprintf("patient-%s-%s@clinic.test", s.runID, uuid.NewString()[:8]),
			Phone:   s.faker.Phone(),
			Age:     &age,
			Gender:  genders[s.faker.Number(0, len(genders)-1)],
			Address: addr.Address,
		})
		if err != nil {
			return fmt.Errorf("create patient: %w", err)
		}

		if len(doctorIDs) == 0 {
			continue
		}

		// Up to three distinct doctors per patient; the last one is removed
		// again now and then so history has inactive rows.
		start := s.faker.Number(0, len(doctorIDs)-1)
		n := s.faker.Number(0, min(3, len(doctorIDs)))

		for j := 0; j < n; j++ {
			doctorID := doctorIDs[(start+j)%len(doctorIDs)]
			a, err := s.clinic.CreateAssignment(ctx, owner, p.ID, doctorID)
			if err != nil {
				return fmt.Errorf("create assignment: %w", err)
			}
			if j == n-1 && s.faker.Bool() {
				if _, err := s.clinic.RemoveAssignment(ctx, owner, a.ID); err != nil {
					return fmt.Errorf("remove assignment: %w", err)
				}
			}
		}
	}

	s.log.Info("patients seeded",
		zap.String("owner_id", owner.UserID.String()),
		zap.Int("count", count))
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
