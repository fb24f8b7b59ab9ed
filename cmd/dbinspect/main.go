// Package main provides a read-only inspector for the chapterd job database.
//
// Usage:
//
//	DB_PATH=~/.chapterd/store go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/chapterdapp/chapterd/internal/store"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.chapterd/store")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Job Database Inspection ===")
	fmt.Println()

	byStatus := map[store.Status]int{}
	total := 0
	totalChapters := 0
	shown := 0

	err = db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("job:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek([]byte("job:")); it.ValidForPrefix([]byte("job:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip index keys ("job:idx:...").
			if strings.HasPrefix(key, "job:idx:") {
				continue
			}

			err := item.Value(func(val []byte) error {
				var job store.Job
				if err := json.Unmarshal(val, &job); err != nil {
					return err
				}

				total++
				byStatus[job.Status]++
				totalChapters += len(job.Boundaries)

				if shown < 5 {
					shown++
					fmt.Printf("Job: %s\n", job.ID)
					fmt.Printf("  Status: %s\n", job.Status)
					fmt.Printf("  Input: %s\n", job.Input)
					fmt.Printf("  Language: %s\n", job.Language)
					if job.Error != "" {
						fmt.Printf("  Error: %s\n", job.Error)
					}
					for i, b := range job.Boundaries {
						if i >= 5 {
							fmt.Printf("    ... and %d more chapters\n", len(job.Boundaries)-5)
							break
						}
						fmt.Printf("    [%d] %s (%s - %s)\n", i+1, b.Label, b.Start, b.End)
					}
					fmt.Println()
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading job %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total jobs: %d\n", total)
	for _, status := range []store.Status{store.StatusPending, store.StatusRunning, store.StatusSucceeded, store.StatusFailed} {
		if byStatus[status] > 0 {
			fmt.Printf("  %s: %d\n", status, byStatus[status])
		}
	}
	fmt.Printf("Total chapters: %d\n", totalChapters)
	if total > 0 {
		fmt.Printf("Average chapters per job: %.1f\n", float64(totalChapters)/float64(total))
	}
}
