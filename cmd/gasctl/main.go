package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/db/models"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(bootstrap).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the services the commands drive. The same services back the API.
type app struct {
	logg     *logger.Logger
	users    users.Service
	userRepo userLookup
	agents   agents.Service
	products product.Service
	close    func() error
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type bootstrapFunc func(ctx context.Context) (*app, error)

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "gasctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	agentRepo := agents.NewRepository(conn)

	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		return nil, err
	}
	agentService, err := agents.NewService(agentRepo, userRepo, dbClient, outbox.NewService(outbox.NewRepository(conn), logg), cfg.Password)
	if err != nil {
		return nil, err
	}
	productService, err := product.NewService(product.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	return &app{
		logg:     logg,
		users:    userService,
		userRepo: userRepo,
		agents:   agentService,
		products: productService,
		close:    dbClient.Close,
	}, nil
}

func newRootCmd(boot bootstrapFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "gasctl",
		Short:         "Operator commands for the gas ordering backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSeedCmd(boot),
		newCreateSubAdminCmd(boot),
		newProvisionAgentCmd(boot),
	)
	return root
}

// withApp boots the services, runs fn and closes the database.
func withApp(cmd *cobra.Command, boot bootstrapFunc, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := boot(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if a.close == nil {
			return
		}
		if err := a.close(); err != nil {
			a.logg.Error(ctx, "error closing database", err)
		}
	}()
	return fn(ctx, a)
}
