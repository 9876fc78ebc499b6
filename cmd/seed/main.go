// seed inserts an employer account, candidates, and unclaimed jobs into the
// local dev database. Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hireloop/engine/internal/infrastructure/postgres"
)

const seedEmail = "employer@test.local"

type candidateSpec struct {
	name     string
	email    string
	headline string
	tier     string
}

var candidates = []candidateSpec{
	{"Ada Verne", "ada@test.local", "Senior Backend Engineer, Go/Postgres", "VERIFIED"},
	{"Bo Lindqvist", "bo@test.local", "Platform Engineer, Kubernetes", "VERIFIED"},
	{"Cam Reyes", "cam@test.local", "Fullstack Engineer, React + Go", "ASSESSED"},
	{"Dev Okafor", "dev@test.local", "Data Engineer, Spark/Airflow", "ASSESSED"},
	{"Em Kowalski", "em@test.local", "Junior Backend Engineer", "BASIC"},
}

type jobSpec struct {
	title    string
	company  string
	location string
	source   string
}

var jobs = []jobSpec{
	{"Senior Go Engineer", "Acme Robotics", "Berlin", "scraper:acme"},
	{"Backend Engineer", "Nimbus Cloud", "Remote", "scraper:nimbus"},
	{"Platform Engineer", "Forge Labs", "Amsterdam", "partner:forge"},
	{"Staff Engineer, Infra", "Quanta", "London", "scraper:quanta"},
	{"Data Engineer", "Heliotrope", "Remote", "partner:heliotrope"},
	{"Fullstack Engineer", "Acme Robotics", "Berlin", "scraper:acme"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	// Upsert employer account
	var employerID string
	err = pool.QueryRow(ctx, `
		INSERT INTO accounts (email, company_name, role)
		VALUES ($1, 'Acme Robotics', 'employer')
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		seedEmail,
	).Scan(&employerID)
	if err != nil {
		log.Fatalf("upsert account: %v", err)
	}

	// Upsert candidates, keyed by email for idempotent re-runs
	var candidateIDs []string
	for _, spec := range candidates {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO candidates (name, email, headline, skill_tier)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
			RETURNING id`,
			spec.name, spec.email, spec.headline, spec.tier,
		).Scan(&id)
		if err != nil {
			log.Fatalf("upsert candidate %s: %v", spec.email, err)
		}
		candidateIDs = append(candidateIDs, id)
	}

	// Insert unclaimed jobs, skipping duplicates from earlier runs
	var jobIDs []string
	for _, spec := range jobs {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO jobs (title, company, location, source, status)
			VALUES ($1, $2, $3, $4, 'ACTIVE')
			ON CONFLICT (source, title, company) DO UPDATE SET updated_at = NOW()
			RETURNING id`,
			spec.title, spec.company, spec.location, spec.source,
		).Scan(&id)
		if err != nil {
			log.Fatalf("insert job %s: %v", spec.title, err)
		}
		jobIDs = append(jobIDs, id)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Employer:   %s (id %s)\n", seedEmail, employerID)
	fmt.Printf("  Candidates: %d\n", len(candidateIDs))
	fmt.Printf("  Jobs:       %d (all unclaimed)\n", len(jobIDs))
	fmt.Println()
	fmt.Println("  Candidate IDs:")
	for _, id := range candidateIDs {
		fmt.Printf("    %s\n", id)
	}
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: get a JWT for the employer:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/auth/magic-link \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\"}'\n", seedEmail)
	fmt.Println()
	fmt.Println("    # Copy the token from the server log, then:")
	fmt.Println("    curl -s 'http://localhost:8080/auth/verify?token=TOKEN'")
	fmt.Println("    export JWT=eyJ...")
	fmt.Println()
	fmt.Println("  Step 2: view a candidate and request an introduction:")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:8080/api/employer/candidates/CANDIDATE_ID/view \\")
	fmt.Println("      -H \"Authorization: Bearer $JWT\" -H 'Content-Type: application/json' -d '{}'")
	fmt.Println("    # → take the introduction id from the response")
	fmt.Println("    curl -s -X POST http://localhost:8080/api/employer/introductions/INTRO_ID/request \\")
	fmt.Println("      -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Println("  Step 3: respond as the candidate (link is in the server log):")
	fmt.Println()
	fmt.Println("    curl -s -X POST http://localhost:8080/api/introductions/respond/RAW_TOKEN \\")
	fmt.Println("      -H 'Content-Type: application/json' -d '{\"response\":\"ACCEPTED\"}'")
	fmt.Println()
	fmt.Println("  Step 4: search and claim a job:")
	fmt.Println()
	fmt.Println("    curl -s 'http://localhost:8080/api/employer/claim/search?q=Go' -H \"Authorization: Bearer $JWT\"")
	fmt.Println("    curl -s -X POST http://localhost:8080/api/employer/jobs/JOB_ID/claim \\")
	fmt.Println("      -H \"Authorization: Bearer $JWT\" -H 'Content-Type: application/json' \\")
	fmt.Println("      -d '{\"contact_phone\":\"+4915112345678\",\"role_level\":\"senior\"}'")
}
