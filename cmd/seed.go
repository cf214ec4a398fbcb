package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/cadencehq/audit-engine/internal/config"
	"github.com/cadencehq/audit-engine/internal/db"
	"github.com/cadencehq/audit-engine/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users and companies",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) connect MySQL
		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo users and companies...")

		if err := seedUsers(sqlDB); err != nil {
			return err
		}
		if err := seedCompanies(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedUsers inserts deterministic demo staff (idempotent on api_key).
func seedUsers(dbx *sqlx.DB) error {
	users := []model.User{
		{
			Name:         "Dana Whitfield",
			Email:        "dana@example.com",
			Role:         model.RoleCEO,
			APIKey:       "11111111111111111111111111111111",
			Status:       "active",
			RateLimitRPS: intptr(50),
		},
		{
			Name:         "Marco Reyes",
			Email:        "marco@example.com",
			Role:         model.RoleManager,
			APIKey:       "22222222222222222222222222222222",
			Status:       "active",
			RateLimitRPS: intptr(20),
		},
		{
			Name:         "Priya Nair",
			Email:        "priya@example.com",
			Role:         model.RoleStaff,
			APIKey:       "33333333333333333333333333333333",
			Status:       "active",
			RateLimitRPS: intptr(20),
		},
		{
			Name:         "Former Employee",
			Email:        "former@example.com",
			Role:         model.RoleStaff,
			APIKey:       "44444444444444444444444444444444",
			Status:       "suspended",
			RateLimitRPS: nil,
		},
	}

	// idempotent upsert based on api_key (UNIQUE)
	const q = `
INSERT INTO users
    (name, email, role, api_key, status, rate_limit_rps, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name        = VALUES(name),
    email       = VALUES(email),
    role        = VALUES(role),
    status      = VALUES(status),
    rate_limit_rps = VALUES(rate_limit_rps),
    updated_at  = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, u := range users {
		if _, err := tx.Exec(q, u.Name, u.Email, u.Role.String(), u.APIKey, u.Status, u.RateLimitRPS, now, now); err != nil {
			return fmt.Errorf("insert user %q: %w", u.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit users: %w", err)
	}
	return nil
}

// seedCompanies inserts demo companies spanning all three tiers
// (idempotent on name).
func seedCompanies(dbx *sqlx.DB) error {
	now := time.Now()
	companies := []model.Company{
		{
			Name:      "Northbay Media", // fresh onboard -> TIER_2
			StartDate: now.AddDate(0, 0, -20),
			AdSpend:   4000,
			Tier:      model.TierTwo,
		},
		{
			Name:      "Carter & Low", // settled, high spend -> TIER_1
			StartDate: now.AddDate(0, -8, 0),
			AdSpend:   3100,
			Tier:      model.TierOne,
		},
		{
			Name:      "Juniper Retail", // settled, at the spend boundary -> TIER_3
			StartDate: now.AddDate(-1, 0, 0),
			AdSpend:   2500,
			Tier:      model.TierThree,
		},
	}

	const q = `
INSERT INTO companies
    (name, start_date, ad_spend, tier, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    start_date = VALUES(start_date),
    ad_spend   = VALUES(ad_spend),
    tier       = VALUES(tier),
    updated_at = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range companies {
		if _, err := tx.Exec(q, c.Name, c.StartDate, c.AdSpend, c.Tier.String(), now, now); err != nil {
			return fmt.Errorf("insert company %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit companies: %w", err)
	}
	return nil
}

func intptr(i int) *int { return &i }
