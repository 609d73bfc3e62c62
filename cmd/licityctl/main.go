package main

import (
	"fmt"
	"os"
	"time"

	"licity-service/internal/model"
	"licity-service/pkg/config"
	"licity-service/pkg/database"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:   "licityctl",
		Short: "Operational CLI for the licity service",
	}

	root.AddCommand(migrateCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load("licity-service")
	if err != nil {
		return nil, err
	}
	return database.InitDB(&cfg.DB)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(); err != nil {
				return err
			}
			if err := database.MigrateModels(
				&model.User{},
				&model.Tenant{},
				&model.TenantMembership{},
				&model.ScopeSelection{},
				&model.Client{},
				&model.Contract{},
				&model.Invoice{},
				&model.Task{},
				&model.Document{},
			); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var email, password, name, tenantName string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an initial user with an admin tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if tenantName == "" {
				tenantName = "Minha Empresa"
			}

			db, err := openDB()
			if err != nil {
				return err
			}

			var existing model.User
			if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
				return fmt.Errorf("user %s already exists", email)
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			return db.Transaction(func(tx *gorm.DB) error {
				user := model.User{
					Email:    email,
					Password: string(hash),
					FullName: name,
				}
				if err := tx.Create(&user).Error; err != nil {
					return err
				}

				tenant := model.Tenant{
					Name: tenantName,
					Slug: fmt.Sprintf("seed-%d", time.Now().Unix()),
				}
				if err := tx.Create(&tenant).Error; err != nil {
					return err
				}

				membership := model.TenantMembership{
					UserID:   user.ID,
					TenantID: tenant.ID,
					Role:     model.RoleAdmin,
				}
				if err := tx.Create(&membership).Error; err != nil {
					return err
				}

				fmt.Printf("seeded user %s (id=%d) with tenant %q (id=%d)\n",
					user.Email, user.ID, tenant.Name, tenant.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&password, "password", "", "user password")
	cmd.Flags().StringVar(&name, "name", "", "user full name")
	cmd.Flags().StringVar(&tenantName, "tenant", "", "tenant name")
	return cmd
}
