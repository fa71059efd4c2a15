package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/snapbudget/internal/expense"
	"github.com/zombor/snapbudget/internal/scanning"
)

func main() {
	fs := ff.NewFlagSet("snapbudget")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		spreadsheetID  = fs.StringLong("spreadsheet-id", "", "Google Sheets spreadsheet ID holding the expense ledger")
		sheetName      = fs.StringLong("sheet-name", "Expenses", "Tab name inside the spreadsheet")
		credentials    = fs.StringLong("credentials", "", "Path to the service account JSON key (or use application default credentials)")
		recognizerType = fs.StringLong("recognizer", "tesseract", "Recognizer type: 'tesseract', 'gemini' or 'ollama'")
		tesseractPath  = fs.StringLong("tesseract-path", "", "Path to the tesseract binary (default: resolve against PATH)")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SNAPBUDGET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *spreadsheetID == "" {
		slog.Error("Spreadsheet ID is required. Set --spreadsheet-id flag or SNAPBUDGET_SPREADSHEET_ID environment variable")
		os.Exit(1)
	}

	ctx := context.Background()

	// Initialize ledger
	slog.Info("Initializing ledger...", "sheet", *sheetName)
	ledger, err := expense.NewSheetsLedger(ctx, expense.SheetsConfig{
		CredentialsFile: *credentials,
		SpreadsheetID:   *spreadsheetID,
		SheetName:       *sheetName,
	})
	if err != nil {
		slog.Error("Failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	// Bootstrap the header row; a warning here is not fatal, operations
	// degrade to benign defaults while the store is unreachable
	if err := ledger.EnsureSchema(ctx); err != nil {
		slog.Warn("Could not verify ledger schema", "error", err)
	}

	// Initialize recognizer based on type
	var recognizer scanning.Recognizer
	switch *recognizerType {
	case "tesseract":
		slog.Info("Initializing tesseract recognizer...", "path", *tesseractPath)
		recognizer = scanning.NewTesseract(*tesseractPath)
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini recognizer...", "model", *geminiModel)
		recognizer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *ollamaURL, "model", *ollamaModel)
		recognizer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid recognizer type", "type", *recognizerType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer recognizer.Close()

	// Initialize service
	expenseService := expense.NewService(ledger, recognizer)

	// Initialize server
	basicAuth := expense.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := expense.NewServer(expenseService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
