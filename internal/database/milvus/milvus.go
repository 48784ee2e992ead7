// Package milvus manages the connection to the Milvus vector database and
// the lifecycle of the embedding collection.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"studypal/internal/config"
	"studypal/pkg/logger"
)

// Client wraps the Milvus SDK client together with its configuration.
type Client struct {
	Client client.Client
	Config *config.MilvusConfig
	log    *logger.Logger
}

// NewClient connects to Milvus at the configured address. The caller owns the
// connection and must Close it on shutdown.
func NewClient(ctx context.Context, cfg *config.MilvusConfig) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus at %s: %w", cfg.Address, err)
	}

	log := logger.New("milvus")
	log.WithField("address", cfg.Address).Info("connected to milvus")
	return &Client{Client: c, Config: cfg, log: log}, nil
}

// Close releases the connection.
func (c *Client) Close() {
	if c.Client != nil {
		c.Client.Close()
		c.log.Info("milvus connection closed")
	}
}

// HealthCheck verifies the connection is usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection creates the embedding collection and its vector index if
// they do not exist, then loads the collection for querying. The dimension is
// baked into the schema here, which is why configuration validates it before
// startup gets this far.
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	name := c.Config.Collection

	exists, err := c.Client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %q: %w", name, err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: name,
			Description:    "document chunk embeddings",
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeInt64,
					PrimaryKey: true,
					AutoID:     true,
				},
				{
					Name:     "content",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						entity.TypeParamMaxLength: "65535",
					},
				},
				{
					Name:     "embedding",
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						entity.TypeParamDim: strconv.Itoa(dimension),
					},
				},
			},
		}

		if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("create collection %q: %w", name, err)
		}

		idx, err := c.buildIndex()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, name, "embedding", idx, false); err != nil {
			return fmt.Errorf("create index on %q: %w", name, err)
		}

		c.log.WithField("collection", name).
			WithField("dimension", dimension).
			Info("created milvus collection")
	}

	if err := c.Client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("load collection %q: %w", name, err)
	}
	return nil
}

func (c *Client) buildIndex() (entity.Index, error) {
	idxCfg := c.Config.Index
	switch idxCfg.Type {
	case "", "HNSW":
		m := idxCfg.M
		if m <= 0 {
			m = 16
		}
		efConstruction := idxCfg.EfConstruction
		if efConstruction <= 0 {
			efConstruction = 200
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, m, efConstruction)
		if err != nil {
			return nil, fmt.Errorf("build HNSW index: %w", err)
		}
		return idx, nil
	case "IVF_FLAT":
		idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
		if err != nil {
			return nil, fmt.Errorf("build IVF_FLAT index: %w", err)
		}
		return idx, nil
	case "AUTOINDEX":
		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return nil, fmt.Errorf("build AUTOINDEX index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported milvus index type: %q", idxCfg.Type)
	}
}
