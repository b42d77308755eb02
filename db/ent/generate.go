package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

// Generates a typed client from ./db/ent/schema. The repository layer builds
// its SQL with the dialect builders and does not depend on the output.
func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/joseph-ayodele/orders-tracker/gen/ent",
			Schema:  "github.com/joseph-ayodele/orders-tracker/db/ent/schema",
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
