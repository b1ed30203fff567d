package main

import (
	"fmt"
	"os"

	"github.com/amercogo/MojKutakAdmin/internal/config"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	header := "# MojKutak admin configuration example\n" +
		"# Copy this file to config.yaml and customize as needed.\n" +
		"# Secrets (auth.jwt_secret, storage.s3.*) are usually set through the environment or .env.\n\n"
	output := header + string(yamlData)

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}

	if err := os.WriteFile(outputFile, []byte(output), 0644); err != nil {
		fmt.Fprintf(os.Stderr, config.ErrWriteConfigContentFmt+"\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
