package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/marchingbytes/identity-service/app/repository"
	"github.com/marchingbytes/identity-service/app/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// operatorUserID marks claim changes made from the command line rather
// than through the super-admin HTTP endpoint.
const operatorUserID = 0

var claimsGrantSuper bool

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Manage per-user authorization claims",
}

var claimsGrantCmd = &cobra.Command{
	Use:   "grant <user_id>",
	Short: "Grant admin (and optionally super-admin) claims to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		claimsService, db, err := newClaimsServiceForCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := parseUserIDArg(args[0])
		if err != nil {
			return err
		}

		if err := claimsService.UpdateClaims(context.Background(), userID, true, claimsGrantSuper, operatorUserID); err != nil {
			if errors.Is(err, service.ErrInvalidUser) {
				return fmt.Errorf("user %d does not exist", userID)
			}
			return err
		}

		fmt.Printf("user_id: %d\n", userID)
		fmt.Printf("is_admin: true\n")
		fmt.Printf("is_super_admin: %t\n", claimsGrantSuper)
		return nil
	},
}

var claimsRevokeCmd = &cobra.Command{
	Use:   "revoke <user_id>",
	Short: "Revoke all claims from a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		claimsService, db, err := newClaimsServiceForCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		userID, err := parseUserIDArg(args[0])
		if err != nil {
			return err
		}

		if err := claimsService.UpdateClaims(context.Background(), userID, false, false, operatorUserID); err != nil {
			if errors.Is(err, service.ErrInvalidUser) {
				return fmt.Errorf("user %d does not exist", userID)
			}
			return err
		}

		fmt.Printf("claims revoked for user %d\n", userID)
		return nil
	},
}

var claimsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users with claim records",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		claimsService, db, err := newClaimsServiceForCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := claimsService.ListClaims(context.Background())
		if err != nil {
			return err
		}

		for _, record := range records {
			fmt.Printf("user_id: %d  is_admin: %t  is_super_admin: %t  last_modified_by: %d  last_modified_at: %s\n",
				record.UserID, record.IsAdmin, record.IsSuperAdmin, record.LastModifiedBy,
				record.LastModifiedAt.UTC().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	claimsGrantCmd.Flags().BoolVar(&claimsGrantSuper, "super", false, "also grant super-admin")
	claimsCmd.AddCommand(claimsGrantCmd)
	claimsCmd.AddCommand(claimsRevokeCmd)
	claimsCmd.AddCommand(claimsListCmd)
	rootCmd.AddCommand(claimsCmd)
}

func newClaimsServiceForCommands() (*service.ClaimsService, *sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	claimsService := service.NewClaimsService(repository.NewClaimsRepository(db), repository.NewUserRepository(db))
	return claimsService, db, nil
}

func parseUserIDArg(arg string) (uint64, error) {
	userID, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return userID, nil
}
