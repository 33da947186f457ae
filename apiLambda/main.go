package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"gitlab.connectwisedev.com/pos-service/pkg/app"
	"gitlab.connectwisedev.com/pos-service/pkg/config"
	"gitlab.connectwisedev.com/pos-service/pkg/gateway"
)

var storefront *app.App

func init() {
	config.LoadEnv() // Load environment variables first

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	storefront, err = app.New(cfg, app.NewLogger(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
}

func handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return gateway.Handle(ctx, storefront.Handler, request)
}

func main() {
	defer storefront.Close()
	lambda.Start(handler)
}
