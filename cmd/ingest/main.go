package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"mca-name-check/backend/internal/match"
	"mca-name-check/backend/internal/store"
)

// ingest bulk-loads a registrar company master CSV (company name + CIN) into
// the local SQLite database used by the DB-backed conflict search.
func main() {
	dbPath := flag.String("db", "data/name-check.db", "path to the sqlite database")
	csvPath := flag.String("csv", "", "path to the company master CSV")
	nameCol := flag.Int("name-col", 0, "zero-based column index of the company name")
	cinCol := flag.Int("cin-col", 1, "zero-based column index of the CIN")
	stateCol := flag.Int("state-col", -1, "zero-based column index of the state (optional)")
	statusCol := flag.Int("status-col", -1, "zero-based column index of the status (optional)")
	skipHeader := flag.Bool("skip-header", true, "skip the first CSV row")
	chunkSize := flag.Int("chunk", 500, "rows per insert chunk")
	flag.Parse()

	if strings.TrimSpace(*csvPath) == "" {
		logrus.Fatal("-csv is required")
	}

	db, err := store.Open(*dbPath, true)
	if err != nil {
		logrus.Fatalf("open database: %v", err)
	}
	defer db.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		logrus.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		companies []store.Company
		total     int
		skipped   int
		firstRow  = true
	)

	flushChunk := func() {
		if len(companies) == 0 {
			return
		}
		inserted, err := db.UpsertCompanies(companies, *chunkSize)
		if err != nil {
			logrus.Fatalf("upsert companies: %v", err)
		}
		total += inserted
		companies = companies[:0]
		logrus.WithField("total", total).Info("ingest progress")
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logrus.Fatalf("read csv: %v", err)
		}
		if firstRow {
			firstRow = false
			if *skipHeader {
				continue
			}
		}
		if *nameCol >= len(record) || *cinCol >= len(record) {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimPrefix(record[*nameCol], "\ufeff"))
		cin := strings.TrimSpace(record[*cinCol])
		if name == "" || cin == "" {
			skipped++
			continue
		}

		profile := match.NormalizeName(name)
		company := store.Company{
			CIN:            cin,
			Name:           name,
			NameNormalized: profile.Key,
			NameSquashed:   profile.Squashed,
		}
		if *stateCol >= 0 && *stateCol < len(record) {
			company.State = strings.TrimSpace(record[*stateCol])
		}
		if *statusCol >= 0 && *statusCol < len(record) {
			company.Status = strings.TrimSpace(record[*statusCol])
		}
		companies = append(companies, company)

		if len(companies) >= *chunkSize*4 {
			flushChunk()
		}
	}
	flushChunk()

	logrus.WithFields(logrus.Fields{
		"ingested": total,
		"skipped":  skipped,
	}).Info("company master ingest complete")
}
