// Package catalog bulk-loads products from CSV files.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/pos"
)

// ProductCreator is the part of the product service the importer needs.
type ProductCreator interface {
	Create(ctx context.Context, in pos.NewProduct) (*models.Product, error)
}

// Result summarizes an import.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

var requiredColumns = []string{"name", "price", "image"}

// Importer creates one product per CSV row.
type Importer struct {
	products ProductCreator
	logger   *slog.Logger
}

func NewImporter(products ProductCreator, logger *slog.Logger) *Importer {
	return &Importer{products: products, logger: logger}
}

// Import reads a CSV with a header row. Rows the product service rejects as
// invalid are logged and skipped; any other failure stops the import and is
// returned together with the counts so far.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	var res Result

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return res, fmt.Errorf("CSV is empty")
	}
	if err != nil {
		return res, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns, err := columnIndex(header)
	if err != nil {
		return res, err
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		row := parseRow(record, columns)
		product, err := im.products.Create(ctx, pos.NewProduct{
			Name:        row.Name,
			Price:       row.Price,
			Image:       row.Image,
			Description: row.Description,
		})
		if err != nil {
			if pos.KindOf(err) == pos.KindInternal {
				return res, fmt.Errorf("failed to import line %d: %w", line, err)
			}
			im.logger.Warn("catalog_row_skipped", "line", line, "name", row.Name, "error", err)
			res.Skipped++
			continue
		}
		im.logger.Debug("catalog_row_imported", "line", line, "product_id", product.ID)
		res.Created++
	}

	im.logger.Info("catalog_imported", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", c)
		}
	}
	return columns, nil
}

func parseRow(record []string, columns map[string]int) models.ProductCSV {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return models.ProductCSV{
		Name:        field("name"),
		Price:       field("price"),
		Image:       field("image"),
		Description: field("description"),
	}
}
