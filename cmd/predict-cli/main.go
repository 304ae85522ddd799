package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	predictform "github.com/goliatone/go-predictform"
	"github.com/goliatone/go-predictform/internal/config"
	"github.com/goliatone/go-predictform/internal/prompt"
	"github.com/goliatone/go-predictform/pkg/contract"
	"github.com/goliatone/go-predictform/pkg/page"
	"github.com/goliatone/go-predictform/pkg/page/htmldoc"
	"github.com/goliatone/go-predictform/pkg/predict"
	"github.com/goliatone/go-predictform/pkg/submit"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	baseURL := flag.String("url", "", "prediction page URL (overrides client.base_url)")
	verbose := flag.Bool("v", false, "log requests")
	flag.Parse()

	cfg, err := config.Load(*configPath, config.WithEnvFiles(".env"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.Client.Timeout}
	doc, err := fetchPage(ctx, httpClient, cfg.Client.BaseURL)
	if err != nil {
		log.Fatalf("Failed to load page: %v", err)
	}

	c, err := contract.Default()
	if err != nil {
		log.Fatalf("Failed to load contract: %v", err)
	}

	_, err = prompt.FillForm(ctx, prompt.NewSurveyDriver(os.Stdout), c, func(name, value string) error {
		return doc.SetValue(page.FormID, name, value)
	})
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Println("Aborted.")
		return
	}
	if err != nil {
		log.Fatalf("Failed to fill form: %v", err)
	}

	var (
		price     string
		submitErr error
	)
	client := predict.New(
		predict.WithHTTPClient(httpClient),
		predict.WithLogger(logger),
	)
	handler := predictform.Attach(doc, client,
		submit.WithLogger(logger),
		submit.WithContext(ctx),
		submit.WithResultHook(func(_ context.Context, _ submit.Submission, p string) {
			price = p
		}),
		submit.WithErrorHook(func(_ context.Context, _ submit.Submission, err error) {
			submitErr = err
		}),
	)
	doc.Load()
	if err := handler.Err(); err != nil {
		log.Fatalf("Page is not a prediction form: %v", err)
	}

	if _, err := doc.Submit(page.FormID); err != nil {
		log.Fatalf("Failed to submit: %v", err)
	}
	handler.Wait()

	if submitErr != nil {
		log.Fatalf("Prediction failed: %v", submitErr)
	}
	fmt.Printf("Predicted price: %s %s\n", price, cfg.Page.Currency)
}

func fetchPage(ctx context.Context, client *http.Client, pageURL string) (*htmldoc.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}
	return htmldoc.Parse(resp.Body, htmldoc.WithBaseURL(resp.Request.URL.String()))
}
