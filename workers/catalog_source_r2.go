// workers/catalog_source_r2.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rework-vault/utils"
)

// R2CatalogSource reads a full catalog manifest object from an R2 bucket. The
// object's ETag is remembered so an unchanged manifest is not re-applied.
type R2CatalogSource struct {
	Objects utils.ObjectGetter
	Bucket  string
	Key     string

	lastETag    string
	pendingETag string
}

func NewR2CatalogSource(objects utils.ObjectGetter, bucket, key string) *R2CatalogSource {
	return &R2CatalogSource{Objects: objects, Bucket: bucket, Key: key}
}

func (s *R2CatalogSource) Name() string { return "r2://" + s.Bucket + "/" + s.Key }

func (s *R2CatalogSource) Fetch(ctx context.Context, _ time.Time) (*CatalogManifest, error) {
	raw, etag, err := utils.FetchObject(ctx, s.Objects, s.Bucket, s.Key)
	if err != nil {
		return nil, err
	}
	if etag != "" && etag == s.lastETag {
		return nil, nil
	}

	var manifest CatalogManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode catalog manifest %s: %w", s.Key, err)
	}
	s.pendingETag = etag
	return &manifest, nil
}

// Ack marks the last fetched manifest as applied.
func (s *R2CatalogSource) Ack() { s.lastETag = s.pendingETag }
