package main

import (
	"os"

	"github.com/medtracker/medtracker/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
