package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

// checkoutColumns are the columns checkout milestone rows cannot be
// streamed without. Extra columns in the table are fine.
var checkoutColumns = []string{"event_id", "event_type", "occurred_at"}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery checkout table is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// Client streams checkout milestones into the analytics dataset.
type Client struct {
	client        *bigquery.Client
	dataset       *bigquery.Dataset
	checkoutTable string
}

// NewClient connects to BigQuery and verifies the checkout table exists
// with the columns the storefront writes.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	table := strings.TrimSpace(cfg.CheckoutEventsTable)
	if table == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	client := &Client{
		client:        bqClient,
		dataset:       bqClient.Dataset(datasetID),
		checkoutTable: table,
	}
	if err := client.Ping(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": datasetID, "table": table}), "bigquery client initialized")
	}
	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Ping checks the checkout table is reachable and still has its columns.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	meta, err := c.dataset.Table(c.checkoutTable).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("table %s.%s does not exist", c.dataset.DatasetID, c.checkoutTable)
		}
		return fmt.Errorf("checking table %s.%s: %w", c.dataset.DatasetID, c.checkoutTable, err)
	}
	return missingColumns(meta.Schema)
}

func missingColumns(schema bigquery.Schema) error {
	have := make(map[string]bool, len(schema))
	for _, field := range schema {
		have[strings.ToLower(field.Name)] = true
	}
	var missing []string
	for _, name := range checkoutColumns {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("checkout table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckoutEventsTable returns the table checkout milestones are streamed into.
func (c *Client) CheckoutEventsTable() string {
	if c == nil {
		return ""
	}
	return c.checkoutTable
}

// InsertRows streams rows into table. Rows that implement bigquery.ValueSaver
// carry their own insert id, so a retried batch is deduplicated by BigQuery.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

// Close releases the BigQuery client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
