package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sailcare/clinic-api/internal/user"
)

var (
	adminFlagEmail     string
	adminFlagPassword  string
	adminFlagFirstName string
	adminFlagLastName  string
	adminFlagPhone     string
	adminFlagRole      string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage staff accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account (admin by default)",
	Long:  "Create a staff account directly in the user store. Patients register through the API instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminFlagRole == user.RolePatient {
			return fmt.Errorf("patient accounts are created through registration, not clinicctl")
		}

		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		// Staff accounts never get a patient profile or a booking.
		svc := user.NewService(user.NewPgRepository(pool), nil, nil)
		reg, err := svc.CreateAccount(cmd.Context(), user.AccountInput{
			FirstName: adminFlagFirstName,
			LastName:  adminFlagLastName,
			Email:     adminFlagEmail,
			Phone:     adminFlagPhone,
			Role:      adminFlagRole,
			Status:    user.StatusActive,
			Password:  adminFlagPassword,
		})
		if err != nil {
			return err
		}

		u := reg.User
		fmt.Printf("created %s account %s (uid %s)\n", u.Role, u.Email, u.UID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminFlagEmail, "email", "", "login email")
	adminCreateCmd.Flags().StringVar(&adminFlagPassword, "password", "", "initial password (min 6 characters)")
	adminCreateCmd.Flags().StringVar(&adminFlagFirstName, "first-name", "", "first name")
	adminCreateCmd.Flags().StringVar(&adminFlagLastName, "last-name", "", "last name")
	adminCreateCmd.Flags().StringVar(&adminFlagPhone, "phone", "", "contact number")
	adminCreateCmd.Flags().StringVar(&adminFlagRole, "role", user.RoleAdmin, "staff role")
	for _, name := range []string{"email", "password", "first-name", "last-name", "phone"} {
		_ = adminCreateCmd.MarkFlagRequired(name)
	}

	adminCmd.AddCommand(adminCreateCmd)
}
