// AngelaMos | 2026
// migrate.go

package schema

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var ddl string

type ReferencePlan struct {
	Name         string
	MaxScreens   int
	MonthlyPrice float64
}

var ReferencePlans = []ReferencePlan{
	{Name: "Basic", MaxScreens: 1, MonthlyPrice: 9.99},
	{Name: "Standard", MaxScreens: 2, MonthlyPrice: 15.49},
	{Name: "Premium", MaxScreens: 4, MonthlyPrice: 22.99},
}

// Statements splits the embedded DDL into executable statements.
func Statements() []string {
	var out []string
	for _, chunk := range strings.Split(ddl, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}

		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrate creates every table idempotently. With seedPlans it also inserts
// the reference plans that are missing.
func Migrate(ctx context.Context, db *sqlx.DB, seedPlans bool) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	for _, stmt := range Statements() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if seedPlans {
		for _, p := range ReferencePlans {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO plans (plan_name, max_screens, monthly_price)
				VALUES ($1, $2, $3)
				ON CONFLICT (plan_name) DO NOTHING`,
				p.Name, p.MaxScreens, p.MonthlyPrice,
			); err != nil {
				return fmt.Errorf("seed plan %s: %w", p.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
