package main

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/restopulse/review-server/internal/cli"
)

func main() {
	cli.Execute()
}
