package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jadolg/AudioStash"
	log "github.com/sirupsen/logrus"
)

func printBanner() {
	banner := `
    _             _ _       ___  _            _
   /_\  _  _ __| (_)___  / __|| |_ __ _ ___| |_
  / _ \| || / _' | / _ \ \__ \|  _/ _' (_-<| ' \
 /_/ \_\\_,_\__,_|_\___/ |___/ \__\__,_/__/|_||_|
	`
	fmt.Println(banner)
}

func main() {
	printBanner()
	configPath := flag.String("config", lookupEnvOr("AUDIOSTASH_CONFIG", ""), "Path to the YAML configuration file")
	port := flag.Int("port", 0, "Port to be used by the service (overrides the configuration)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		config.Port = *port
		if err := config.Validate(); err != nil {
			log.Fatal(err)
		}
	}

	server := NewServer(config)
	log.Fatal(server.Run())
}

// loadConfig reads the configuration file, or builds the defaults when no
// file is given.
func loadConfig(path string) (*audiostash.Config, error) {
	if path != "" {
		return audiostash.LoadConfig(path)
	}
	config := &audiostash.Config{}
	config.ApplyDefaults()
	return config, config.Validate()
}

func lookupEnvOr(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}
