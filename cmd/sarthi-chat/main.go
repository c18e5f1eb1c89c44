package main

import (
	"flag"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"sarthi/internal/client"
	"sarthi/internal/tui"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("SARTHI_SERVER", "http://localhost:8000"), "Base URL of the Sarthi server")
	lang := flag.String("lang", "", "Language tag (e.g. hi, mr-IN); empty lets the server detect it")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	m := tui.New(client.New(*server, *timeout), *lang)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
