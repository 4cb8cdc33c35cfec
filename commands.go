package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/patient-tracker/adherence-api/api/handlers"
	"github.com/patient-tracker/adherence-api/config"
	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/models"
)

const shutdownTimeout = 15 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adherence-api",
		Short:         "Medication adherence tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and background scheduler",
			RunE:  runServe,
		},
		newRemindCmd(),
		&cobra.Command{
			Use:   "sweep",
			Short: "Mark every overdue dose of the current day as missed",
			RunE:  runSweep,
		},
		newUserCmd(),
	)
	return root
}

// setup loads config and connects the app. The caller must Close it.
func setup(ctx context.Context) (*handlers.App, error) {
	a := &handlers.App{Config: *config.New()}
	if err := ensureJWTSecret(&a.Config); err != nil {
		return nil, err
	}
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// ensureJWTSecret generates a throwaway secret for local runs. Tokens issued
// with it stop working when the process exits.
func ensureJWTSecret(conf *config.Config) error {
	if conf.JWTSecret != "" {
		return nil
	}
	if conf.Env != "local" {
		return errors.New("JWT_SECRET must be set outside local development")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	conf.JWTSecret = hex.EncodeToString(b)
	zap.S().Warn("JWT_SECRET is not set, using a random secret for this process")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Close(closeCtx)
	}()

	if a.Config.SchedulerEnabled {
		if err := a.StartScheduler(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		zap.S().Infow("adherence-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
			"scheduler", a.Config.SchedulerEnabled)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRemindCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send the reminder emails for a period now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			p := a.Service.CurrentPeriod()
			if period != "" {
				parsed, ok := models.ParsePeriod(period)
				if !ok {
					return fmt.Errorf("unknown period %q", period)
				}
				p = parsed
			}
			res, err := a.Service.SendReminders(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "period=%s patients=%d emails=%d seeded=%d failures=%d\n",
				res.Period, res.PatientsChecked, res.EmailsSent, res.RecordsSeeded, res.Failures)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "morning, afternoon or evening (default: the current period)")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.Service.CatchUpSweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "marked=%d patients=%d\n", res.Marked, len(res.ByPatient))
	return nil
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var name, email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a patient or doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.Role(strings.ToLower(role))
			if !r.Valid() {
				return fmt.Errorf("role must be patient or doctor, got %q", role)
			}
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			now := time.Now()
			user := &models.User{
				ID:           primitive.NewObjectID(),
				Name:         name,
				Email:        email,
				PasswordHash: string(hash),
				Role:         r,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := databases.NewUserDatabase(a.Database()).Insert(ctx, user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID.Hex())
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "login email")
	create.Flags().StringVar(&password, "password", "", "login password")
	create.Flags().StringVar(&role, "role", string(models.RolePatient), "patient or doctor")

	userCmd.AddCommand(create)
	return userCmd
}
