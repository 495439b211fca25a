// Seeds a circulation database with a small demo catalog for local use.
//
// Usage: go run ./cmd/seed_catalog -db ./circulation.db
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/shelfwise/circulation/internal/database"
	"github.com/shelfwise/circulation/internal/database/catalog"
	"github.com/shelfwise/circulation/internal/entities"
)

var demoBooks = []entities.Book{
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", ISBN: "9780134190440", TotalCopies: 3},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", TotalCopies: 2},
	{Title: "The Pragmatic Programmer", Author: "David Thomas", ISBN: "9780135957059", TotalCopies: 2},
	{Title: "A Tour of C++", Author: "Bjarne Stroustrup", ISBN: "9780136816485", TotalCopies: 1},
	{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson", ISBN: "9780262510875", TotalCopies: 1},
}

var demoMembers = []entities.Member{
	{Name: "Ada Wong", Email: "ada@example.com", Status: entities.MembershipStatusActive},
	{Name: "Ben Okafor", Email: "ben@example.com", Status: entities.MembershipStatusActive},
	{Name: "Carla Diaz", Email: "carla@example.com", Status: entities.MembershipStatusSuspended},
}

func main() {
	dbPath := flag.String("db", "./circulation.db", "path to the circulation database")
	flag.Parse()

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := catalog.NewRepository(db.DB)

	for i := range demoBooks {
		if err := repo.CreateBook(&demoBooks[i]); err != nil {
			log.Fatalf("Failed to seed book %q: %v", demoBooks[i].Title, err)
		}
	}
	for i := range demoMembers {
		if err := repo.CreateMember(&demoMembers[i]); err != nil {
			log.Fatalf("Failed to seed member %q: %v", demoMembers[i].Name, err)
		}
	}

	fmt.Printf("Seeded %d books and %d members into %s\n", len(demoBooks), len(demoMembers), *dbPath)
}
