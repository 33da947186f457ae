package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"gitlab.connectwisedev.com/pos-service/pkg/app"
	"gitlab.connectwisedev.com/pos-service/pkg/catalog"
	"gitlab.connectwisedev.com/pos-service/pkg/config"
)

var (
	storefront *app.App
	importer   *catalog.Importer
	cfg        *config.Config
)

func init() {
	config.LoadEnv() // Load environment variables first

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	storefront, err = app.New(cfg, app.NewLogger(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	importer = catalog.NewImporter(storefront.Products, storefront.Logger)
}

// S3EventWrapper is a custom struct to handle either S3 events or direct CSV payload
type S3EventWrapper struct {
	Records []events.S3EventRecord `json:"Records,omitempty"`
	CSVData string                 `json:"csv_data,omitempty"` // For local testing
}

func handler(ctx context.Context, event S3EventWrapper) (catalog.Result, error) {
	csvContent, err := readCSV(event)
	if err != nil {
		return catalog.Result{}, err
	}
	return importer.Import(ctx, bytes.NewReader(csvContent))
}

func readCSV(event S3EventWrapper) ([]byte, error) {
	switch {
	case len(event.Records) > 0:
		s3Record := event.Records[0].S3
		log.Printf("Processing S3 event for bucket: %s, key: %s", s3Record.Bucket.Name, s3Record.Object.Key)

		// Only the local simulation is supported; deployed functions receive
		// the file through csv_data.
		if !cfg.IsLocal() {
			return nil, fmt.Errorf("S3 download is not supported outside APP_ENV=local; send the file as csv_data")
		}
		content, err := os.ReadFile("products.csv")
		if err != nil {
			return nil, fmt.Errorf("failed to read local products.csv for S3 simulation: %w", err)
		}
		return content, nil
	case event.CSVData != "":
		log.Println("Processing direct CSV data payload.")
		return []byte(event.CSVData), nil
	default:
		return nil, fmt.Errorf("no S3 event record or direct CSV data found in the payload")
	}
}

func main() {
	defer storefront.Close()
	lambda.Start(handler)
}
