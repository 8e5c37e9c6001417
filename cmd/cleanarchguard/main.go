package main

import (
	"flag"
	"log"

	"github.com/jacksonlee411/taskgrid/internal/archguard"
)

func main() {
	configPath := flag.String("config", ".gocleanarch.yml", "config file path")
	flag.Parse()

	cfg, err := archguard.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to read config: %v\n", err)
	}
	violations, err := archguard.Check(cfg)
	if err != nil {
		log.Fatalf("go-cleanarch failed: %v\n", err)
	}
	if len(violations) > 0 {
		for _, v := range violations {
			log.Println(v)
		}
		log.Fatalf("go-cleanarch: %d violation(s)", len(violations))
	}
	log.Println("go-cleanarch: ok")
}
