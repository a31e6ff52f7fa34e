package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"trafficsafe-backend/catalog"
	"trafficsafe-backend/models"
	"trafficsafe-backend/repository"
	"trafficsafe-backend/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

var (
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

func main() {
	lang := flag.String("lang", catalog.DefaultLang, "welcome language (vi or en)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	endpoint := os.Getenv("PROXY_URL")
	if endpoint == "" {
		endpoint = "http://localhost:8080/api/chat"
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load lesson catalog: %v", err)
	}

	answers := service.NewAnswerClient(
		service.BuildLegalCorpusIndex(catalog.LegalCorpus()),
		service.NewProxyHTTPClient(endpoint, 60*time.Second),
		repository.NewQueryCache(100),
	)
	resolver := service.NewIntentResolver(cat.Lessons, answers)

	// lipgloss drops colours by itself when stdout is not a terminal
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	conv := models.NewConversation(*lang, time.Now())
	printMessage(resolver.Welcome(conv, cat.WelcomeText(*lang)))

	var options []string
	if len(conv.Messages) > 0 {
		options = conv.Messages[0].Options
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print(promptStyle.Render("> "))
		}
		if !scanner.Scan() {
			break
		}
		input := pickOption(scanner.Text(), options)
		if input == "/quit" {
			break
		}

		reply := resolver.Handle(context.Background(), conv, input)
		printMessage(reply)
		options = reply.Options
	}
}

// pickOption lets a numbered choice stand for the option text
func pickOption(input string, options []string) string {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(options) {
		return input
	}
	return options[n-1]
}

func printMessage(msg models.ChatMessage) {
	fmt.Printf("\n%s\n", replyStyle.Render(msg.Text))
	for i, opt := range msg.Options {
		fmt.Println(optionStyle.Render(fmt.Sprintf("  [%d] %s", i+1, opt)))
	}
	fmt.Println()
}
