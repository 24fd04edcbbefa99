package main

import (
	"context"
	"fmt"
	"time"

	"clinic-orchestrator/cmd/bootstrap"
	"clinic-orchestrator/internal/domain/entity"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var specializations = []string{
	"General Practice",
	"Internal Medicine",
	"Pediatrics",
	"Dermatology",
	"Cardiology",
	"Neurology",
}

type seedOptions struct {
	doctors  int
	staff    int
	patients int
	days     int
}

func seedCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a development database with fake users, services and shifts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Close()

			return seed(ctx, app, opts)
		},
	}
	cmd.Flags().IntVar(&opts.doctors, "doctors", 5, "Number of doctors")
	cmd.Flags().IntVar(&opts.staff, "staff", 3, "Number of lab/desk staff")
	cmd.Flags().IntVar(&opts.patients, "patients", 20, "Number of patients")
	cmd.Flags().IntVar(&opts.days, "days", 14, "Days of shifts to create per doctor, starting today")
	return cmd
}

func seed(ctx context.Context, app *bootstrap.App, opts seedOptions) error {
	repos := app.Repositories
	loc := app.Config.App.Location()

	if err := repos.Role.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	admin, err := seedUser(ctx, app, entity.RoleIDAdmin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	fmt.Printf("admin    %s %s\n", admin.ID, admin.Email)

	for i := 0; i < opts.staff; i++ {
		staff, err := seedUser(ctx, app, entity.RoleIDStaff)
		if err != nil {
			return fmt.Errorf("seed staff: %w", err)
		}
		fmt.Printf("staff    %s %s\n", staff.ID, staff.Email)
	}

	for i := 0; i < opts.patients; i++ {
		patient, err := seedUser(ctx, app, entity.RoleIDPatient)
		if err != nil {
			return fmt.Errorf("seed patients: %w", err)
		}
		if i < 3 {
			fmt.Printf("patient  %s %s\n", patient.ID, patient.Email)
		}
	}

	if err := seedServices(ctx, app); err != nil {
		return fmt.Errorf("seed services: %w", err)
	}

	today := time.Now().In(loc)
	for i := 0; i < opts.doctors; i++ {
		doctor, err := seedUser(ctx, app, entity.RoleIDDoctor)
		if err != nil {
			return fmt.Errorf("seed doctors: %w", err)
		}

		profile := &entity.DoctorProfile{
			UserID:         doctor.ID,
			LicenseNumber:  fmt.Sprintf("STR-%08d", gofakeit.Number(1, 99999999)),
			Specialization: specializations[gofakeit.Number(0, len(specializations)-1)],
			Biography:      gofakeit.Sentence(12),
		}
		if err := repos.DoctorProfile.Create(ctx, profile); err != nil {
			return fmt.Errorf("seed doctor profile: %w", err)
		}

		for d := 0; d < opts.days; d++ {
			day := today.AddDate(0, 0, d)
			if day.Weekday() == time.Sunday {
				continue
			}
			shift := &entity.DoctorShift{
				DoctorID:  doctor.ID,
				ShiftDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
				StartTime: "08:00",
				EndTime:   "12:00",
			}
			if err := repos.DoctorShift.Create(ctx, shift); err != nil {
				return fmt.Errorf("seed shifts: %w", err)
			}
		}
		fmt.Printf("doctor   %s %s (%s)\n", doctor.ID, doctor.Email, profile.Specialization)
	}

	app.Log.Info("Seed complete")
	return nil
}

func seedUser(ctx context.Context, app *bootstrap.App, roleID int) (*entity.User, error) {
	user := &entity.User{
		ID:       uuid.New(),
		RoleID:   roleID,
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		IsActive: true,
	}
	if err := app.Repositories.User.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func seedServices(ctx context.Context, app *bootstrap.App) error {
	services := []entity.ClinicService{
		{Name: "General Consultation", DurationMinutes: 30, Price: decimal.NewFromInt(150000), OnlineAllowed: true},
		{Name: "Online Follow-up", DurationMinutes: 20, Price: decimal.NewFromInt(100000), OnlineAllowed: true},
		{Name: "Blood Panel Check-up", DurationMinutes: 30, Price: decimal.NewFromInt(350000), RequiresLabWork: true, BloodSampleRequired: true},
		{Name: "Urinalysis", DurationMinutes: 15, Price: decimal.NewFromInt(120000), RequiresLabWork: true},
	}

	for i := range services {
		services[i].ID = uuid.New()
		services[i].Description = gofakeit.Sentence(10)
		services[i].IsActive = true
		if err := app.Repositories.ClinicService.Create(ctx, &services[i]); err != nil {
			return err
		}
		fmt.Printf("service  %s %s\n", services[i].ID, services[i].Name)
	}
	return nil
}
