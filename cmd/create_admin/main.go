package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rotorcharter/internal/config"
	"rotorcharter/internal/database"
	"rotorcharter/internal/logging"
	"rotorcharter/internal/services"
	"rotorcharter/internal/util"
)

var (
	username  string
	email     string
	password  string
	fullName  string
	staffOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "create_admin",
	Short: "Create a back-office operator account",
	Long: `Create an operator account in the users database.

Admins may delete records; staff may read and triage them.

Examples:
  create_admin --username chief --email chief@rotorcharter.com --password 's3cret'
  create_admin -u dispatch -e dispatch@rotorcharter.com -p 's3cret' --staff-only`,
	Args: cobra.NoArgs,
	RunE: runCreateAdmin,
}

func init() {
	rootCmd.Flags().StringVarP(&username, "username", "u", "admin", "login name")
	rootCmd.Flags().StringVarP(&email, "email", "e", "", "contact email (required)")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "initial password (required)")
	rootCmd.Flags().StringVar(&fullName, "full-name", "System Administrator", "display name")
	rootCmd.Flags().BoolVar(&staffOnly, "staff-only", false, "create a staff account without admin rights")
	_ = rootCmd.MarkFlagRequired("email")
	_ = rootCmd.MarkFlagRequired("password")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(cfg)

	db, err := database.Open(cfg.Database.UsersURL(), log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.MigrateUsers(db); err != nil {
		return err
	}

	tokens := util.NewTokenIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
	auth := services.NewAuthService(db, tokens, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	user, err := auth.CreateUser(ctx, services.NewUser{
		Username: username,
		Email:    email,
		Password: password,
		FullName: fullName,
		IsAdmin:  !staffOnly,
		IsStaff:  true,
	})
	if err != nil {
		return err
	}

	role := "admin"
	if staffOnly {
		role = "staff"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %q (id %d)\n", role, user.Username, user.ID)
	return nil
}
