package main

import (
	_ "time/tzdata"

	"github.com/ogulcanaydogan/project-deadline-monitor/internal/cli"
)

func main() {
	cli.Execute()
}
