package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"FitScanner/internal/app"
	"FitScanner/internal/config"
	"FitScanner/internal/infrastructure/store"
	"FitScanner/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (overrides FIT_SCANNER_CONFIG)")
	checkURL := flag.String("check-url", "", "crawl a single URL and print what the classifier would read, then exit")
	reset := flag.Bool("reset", false, "back up the master file and clear every verdict to force reprocessing")
	flag.Parse()

	// Credentials commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg := config.Load(*configPath)
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *checkURL != "" {
		if err := preview(ctx, cfg, logger, *checkURL); err != nil {
			logger.Error("crawl preview failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *reset {
		st, err := store.Open(cfg.Pipeline.MasterFile, logger.With("component", "store"))
		if err != nil {
			logger.Error("cannot open master file", "error", err)
			os.Exit(1)
		}
		if err := st.Reset(); err != nil {
			logger.Error("reset failed", "error", err)
			os.Exit(1)
		}
		logger.Info("master file reset", "file", cfg.Pipeline.MasterFile, "subjects", st.Len())
		return
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		fmt.Fprintln(os.Stderr, "Defina GEMINI_API_KEY no ambiente ou em um arquivo .env na raiz do projeto:")
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY=sua_chave_aqui")
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("run stopped", "error", err)
		os.Exit(1)
	}
}

// preview mirrors what the pipeline would hand to the classifier for one
// site, without touching the store or spending model quota.
func preview(ctx context.Context, cfg config.Config, logger *slog.Logger, url string) error {
	crawl := app.NewCrawler(cfg, logger)

	text, err := crawl.Crawl(ctx, url)
	if err != nil {
		return err
	}

	runes := []rune(text)
	fmt.Printf("Extracted %d characters from %s\n\n", len(runes), url)
	limit := 500
	if len(runes) < limit {
		limit = len(runes)
	}
	fmt.Println("--- preview (first 500 chars) ---")
	fmt.Println(string(runes[:limit]))
	fmt.Println("--- end of preview ---")

	if len(runes) < 200 {
		fmt.Println("warning: very little text extracted; the site may require JavaScript or block bots")
	}
	return nil
}
