package main

import (
	"errors"

	"github.com/bagdasarian/teamhub/internal/service"
	"github.com/spf13/cobra"
)

var superuserInput service.RegisterInput

var createSuperuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create a verified superuser account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if superuserInput.Email == "" || superuserInput.Password == "" {
			return errors.New("--email and --password are required")
		}
		if superuserInput.Name == "" {
			superuserInput.Name = "Administrator"
		}
		superuserInput.Superuser = true

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.migrate(cmd.Context()); err != nil {
			return err
		}

		svc, err := a.services()
		if err != nil {
			return err
		}

		user, err := svc.auth.Register(cmd.Context(), superuserInput)
		if err != nil {
			return err
		}

		a.log.Info("superuser created", "user_id", user.ID.String(), "email", user.Email)
		return nil
	},
}

func init() {
	flags := createSuperuserCmd.Flags()
	flags.StringVar(&superuserInput.Email, "email", "", "superuser email")
	flags.StringVar(&superuserInput.Name, "name", "", "display name")
	flags.StringVar(&superuserInput.Password, "password", "", "password (at least 8 characters)")
	rootCmd.AddCommand(createSuperuserCmd)
}
