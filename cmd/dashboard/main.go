package main

import (
	"flag"
	"log"

	"vanet-sim/internal/dashboard"
)

func main() {
	out := flag.String("out", "build", "Directory for rendered Grafana dashboards")
	flag.Parse()
	if err := dashboard.Render(*out); err != nil {
		log.Fatal(err)
	}
	log.Printf("dashboards written to %s", *out)
}
