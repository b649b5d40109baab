// Package main seeds ReqFlow with departments, users and workflow
// definitions from a YAML file, plus a default admin account when none
// is configured. Seeding is idempotent: rows that already exist are
// skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"reqflow.io/reqflow/internal/config"
	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/infrastructure"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
	"reqflow.io/reqflow/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	seedFile := flag.String("file", "", "path to a YAML seed file (optional)")
	migrate := flag.Bool("migrate", false, "run schema and queue migrations before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if *migrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	store := repository.NewStore(db.Pool)

	logger.Info("Starting data seeding...")

	data := defaultSeed()
	if *seedFile != "" {
		data, err = loadSeedFile(*seedFile)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
	}

	if err := seed(ctx, store, data); err != nil {
		return err
	}

	logger.Info("Data seeding completed successfully")
	return nil
}

// seedData is the YAML seed file shape.
type seedData struct {
	Departments []seedDepartment `yaml:"departments"`
	Users       []seedUser       `yaml:"users"`
	Workflows   []seedWorkflow   `yaml:"workflows"`
}

type seedDepartment struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type seedUser struct {
	Email          string `yaml:"email"`
	FirstName      string `yaml:"first_name"`
	LastName       string `yaml:"last_name"`
	Password       string `yaml:"password"`
	Role           string `yaml:"role"`
	AuthorityLevel int    `yaml:"authority_level"`
	DepartmentID   string `yaml:"department_id"`
}

type seedWorkflow struct {
	DepartmentID     string  `yaml:"department_id"`
	Category         string  `yaml:"category"`
	AmountThreshold  float64 `yaml:"amount_threshold"`
	ApproverSequence []int   `yaml:"approver_sequence"`
}

func loadSeedFile(path string) (seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedData{}, err
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return seedData{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}

// defaultSeed bootstraps a fresh deployment: one department, one admin
// with a forced-rotation password, and a catch-all single-level workflow.
func defaultSeed() seedData {
	return seedData{
		Departments: []seedDepartment{
			{ID: "dept-general", Name: "General", Description: "Default department"},
		},
		Users: []seedUser{
			{
				Email: "admin@reqflow.local", FirstName: "Default", LastName: "Administrator",
				Password: "change-me-on-first-login", Role: string(domain.RoleAdmin),
				AuthorityLevel: 1, DepartmentID: "dept-general",
			},
		},
		Workflows: []seedWorkflow{
			{DepartmentID: "dept-general", Category: "general", AmountThreshold: 0, ApproverSequence: []int{1}},
		},
	}
}

func seed(ctx context.Context, store *repository.Store, data seedData) error {
	for _, d := range data.Departments {
		if err := seedDepartmentRow(ctx, store, d); err != nil {
			return fmt.Errorf("seed department %s: %w", d.Name, err)
		}
	}
	for _, u := range data.Users {
		if err := seedUserRow(ctx, store, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, w := range data.Workflows {
		if err := seedWorkflowRow(ctx, store, w); err != nil {
			return fmt.Errorf("seed workflow %s/%s: %w", w.DepartmentID, w.Category, err)
		}
	}
	return nil
}

func seedDepartmentRow(ctx context.Context, store *repository.Store, d seedDepartment) error {
	id := d.ID
	if id == "" {
		uid, err := uuid.NewV7()
		if err != nil {
			return err
		}
		id = uid.String()
	}
	err := store.CreateDepartment(ctx, &domain.Department{
		ID: id, Name: d.Name, Description: d.Description,
	})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		logger.Info("Department already exists, skipping", zap.String("name", d.Name))
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("Seeded department", zap.String("name", d.Name))
	return nil
}

func seedUserRow(ctx context.Context, store *repository.Store, u seedUser) error {
	role := domain.Role(u.Role)
	if !domain.ValidRole(role) {
		return fmt.Errorf("unknown role %q", u.Role)
	}

	if _, err := store.GetUserByEmail(ctx, u.Email); err == nil {
		logger.Info("User already exists, skipping", zap.String("email", u.Email))
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	uid, err := uuid.NewV7()
	if err != nil {
		return err
	}

	if err := store.CreateUser(ctx, &domain.User{
		ID:             uid.String(),
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		PasswordHash:   string(hash),
		Role:           role,
		AuthorityLevel: u.AuthorityLevel,
		DepartmentID:   u.DepartmentID,
	}); err != nil {
		return err
	}
	logger.Info("Seeded user",
		zap.String("email", u.Email),
		zap.String("role", u.Role),
		zap.Int("authority_level", u.AuthorityLevel),
	)
	return nil
}

func seedWorkflowRow(ctx context.Context, store *repository.Store, w seedWorkflow) error {
	uid, err := uuid.NewV7()
	if err != nil {
		return err
	}
	def := &domain.WorkflowDefinition{
		ID:               uid.String(),
		DepartmentID:     w.DepartmentID,
		Category:         w.Category,
		AmountThreshold:  w.AmountThreshold,
		ApproverSequence: w.ApproverSequence,
	}
	if err := def.Validate(); err != nil {
		return err
	}
	err = store.CreateWorkflow(ctx, def)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		logger.Info("Workflow tier already exists, skipping",
			zap.String("department_id", w.DepartmentID),
			zap.String("category", w.Category),
			zap.Float64("amount_threshold", w.AmountThreshold),
		)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("Seeded workflow",
		zap.String("department_id", w.DepartmentID),
		zap.String("category", w.Category),
		zap.Ints("approver_sequence", w.ApproverSequence),
	)
	return nil
}
