// Package main provides the entry point for artifact inspection: it
// prints the manifest shipped with an exported model and basic facts
// about the artifact file itself.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AshrithaB/modelport/internal/manifest"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	manifestPath := flag.String("manifest", "", "artifact manifest (yaml) path")
	artifactPath := flag.String("artifact", "", "optional artifact file to stat")
	flag.Parse()

	if *manifestPath == "" {
		log.Error().Msg("manifest path is required")
		flag.Usage()
		os.Exit(2)
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load manifest")
		os.Exit(2)
	}

	m.Render(os.Stdout)

	if *artifactPath != "" {
		info, err := os.Stat(*artifactPath)
		if err != nil {
			log.Error().Err(err).Msg("Artifact file not found")
			os.Exit(1)
		}
		fmt.Printf("Artifact:    %s (%d bytes)\n", *artifactPath, info.Size())
	}
}
