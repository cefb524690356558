package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// Ad-hoc sanity check for the sync event log: verifies the seq column has no
// gaps and that every escalation composed from a check-in still points at an
// existing row. Run manually against a live database:
//
//	DB_NAME=careconnect go run check_sync_events.go
func main() {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		parseInt(getEnv("DB_PORT", "5432"), 5432),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "careconnect"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var total, minSeq, maxSeq sql.NullInt64
	err = db.QueryRow(`SELECT COUNT(*), MIN(seq), MAX(seq) FROM sync_events`).Scan(&total, &minSeq, &maxSeq)
	if err != nil {
		log.Fatalf("Failed to query sync_events: %v", err)
	}
	fmt.Printf("sync_events: %d rows, seq %d..%d\n", total.Int64, minSeq.Int64, maxSeq.Int64)

	if total.Int64 > 0 && maxSeq.Int64-minSeq.Int64+1 != total.Int64 {
		fmt.Printf("WARNING: seq range has gaps (%d expected, %d present)\n",
			maxSeq.Int64-minSeq.Int64+1, total.Int64)

		rows, err := db.Query(`
			SELECT seq + 1 AS gap_start
			FROM sync_events s
			WHERE NOT EXISTS (SELECT 1 FROM sync_events WHERE seq = s.seq + 1)
			  AND seq < (SELECT MAX(seq) FROM sync_events)
			ORDER BY seq LIMIT 20`)
		if err != nil {
			log.Fatalf("Failed to locate gaps: %v", err)
		}
		defer rows.Close()
		for rows.Next() {
			var gap int64
			if err := rows.Scan(&gap); err != nil {
				log.Fatalf("Failed to scan gap: %v", err)
			}
			fmt.Printf("  missing seq starting at %d\n", gap)
		}
	}

	var orphans int
	err = db.QueryRow(`
		SELECT COUNT(*)
		FROM escalations e
		WHERE e.source_checkin_id IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM checkins c WHERE c.checkin_id = e.source_checkin_id)`).Scan(&orphans)
	if err != nil {
		log.Fatalf("Failed to query orphaned escalations: %v", err)
	}
	if orphans > 0 {
		fmt.Printf("WARNING: %d escalations reference a missing source check-in\n", orphans)
	} else {
		fmt.Println("escalations: all source_checkin_id references resolve")
	}

	var stale int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM assignments a
		WHERE a.status = 'active'
		GROUP BY a.mother_id HAVING COUNT(*) > 1`).Scan(&stale)
	if err != nil && err != sql.ErrNoRows {
		log.Fatalf("Failed to query assignments: %v", err)
	}
	if stale > 0 {
		fmt.Printf("WARNING: a mother has %d active assignments\n", stale)
	} else {
		fmt.Println("assignments: at most one active CHW per mother")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}
