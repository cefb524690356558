// careconnect-admin is the operator CLI for the care-coordination store:
// schema migration, roster management, and demo seeding. Assignment writes
// live here deliberately; they are never exposed on the actor-facing API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/database"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/config"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

var schemaFile string

var rootCmd = &cobra.Command{
	Use:   "careconnect-admin",
	Short: "Operator tooling for the care-coordination sync store",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		schema, err := os.ReadFile(schemaFile)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		fmt.Println("schema applied")
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <mother-id> <chw-id>",
	Short: "Assign a mother to a CHW, deactivating any prior assignment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		repo := repository.NewPostgresAssignmentsRepository(db)
		a, err := repo.Reassign(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("reassign: %w", err)
		}
		fmt.Printf("assignment %s: mother %s -> chw %s (active)\n", a.ID, a.MotherID, a.CHWID)
		return nil
	},
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List active CHW-mother assignments",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		repo := repository.NewPostgresAssignmentsRepository(db)
		active, err := repo.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("list assignments: %w", err)
		}
		for _, a := range active {
			fmt.Printf("%s\tmother=%s\tchw=%s\tsince=%s\n",
				a.ID, a.MotherID, a.CHWID, a.AssignedAt.Format(time.RFC3339))
		}
		fmt.Printf("%d active assignments\n", len(active))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo data (one assignment, one check-in, one escalation)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		assignments := repository.NewPostgresAssignmentsRepository(db)
		if _, err := assignments.Reassign(ctx, "mother-1", "chw-1"); err != nil {
			return fmt.Errorf("seed assignment: %w", err)
		}

		comment := "Severe headache since this morning"
		motherName := "Demo Mother"
		checkins := repository.NewPostgresCheckInsRepository(db)
		c := &domain.CheckIn{
			MotherID:   "mother-1",
			MotherName: &motherName,
			Response:   domain.CheckInNotOK,
			Comment:    &comment,
			Channel:    domain.ChannelApp,
		}
		if _, err := checkins.CreateCheckIn(ctx, c); err != nil {
			return fmt.Errorf("seed check-in: %w", err)
		}

		escalations := repository.NewPostgresEscalationsRepository(db)
		e := &domain.Escalation{
			MotherID:        "mother-1",
			MotherName:      motherName,
			CHWID:           "chw-1",
			CHWName:         "Demo CHW",
			CaseDescription: "Escalated from check-in: " + comment,
			Priority:        domain.PriorityHigh,
			SourceCheckInID: &c.ID,
		}
		if _, err := escalations.CreateEscalation(ctx, e); err != nil {
			return fmt.Errorf("seed escalation: %w", err)
		}

		fmt.Printf("seeded: assignment mother-1/chw-1, check-in %s, escalation %s\n", c.ID, e.ID)
		return nil
	},
}

func openDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func main() {
	migrateCmd.Flags().StringVar(&schemaFile, "schema", "migrations/schema.sql", "path to the schema file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
