package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func memoryFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "memory",
		Usage: "keep all data in process memory instead of PostgreSQL",
	}
}

func main() {
	app := &cli.Command{
		Name:   "recipe-service",
		Usage:  "Recipe API server",
		Flags:  []cli.Flag{memoryFlag()},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Flags:  []cli.Flag{memoryFlag()},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "createsuperuser",
				Usage: "Create a staff user with all permissions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "email address of the new user",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "password of the new user",
						Sources:  cli.EnvVars("SUPERUSER_PASSWORD"),
						Required: true,
					},
				},
				Action: createSuperuser,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
