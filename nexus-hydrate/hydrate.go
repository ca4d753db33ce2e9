package nexushydrate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultValidity is how long an issued signed URL remains valid.
	DefaultValidity = time.Hour
	// DefaultMargin is subtracted from the validity window when caching, so a
	// served URL always has slack remaining when the client uses it.
	DefaultMargin = 10 * time.Minute
)

// JSON field names on attachment-bearing entities.
const (
	fieldFilePaths = "attachmentFilePaths"
	fieldURLs      = "attachmentUrls"
)

// Hydrator turns storage-relative attachment paths into signed URLs, caching
// issued URLs for slightly less than their validity window.
type Hydrator struct {
	signer   Signer
	cache    *Cache
	validity time.Duration
	margin   time.Duration
	logger   zerolog.Logger
}

func New(signer Signer, cache *Cache, logger zerolog.Logger) *Hydrator {
	return &Hydrator{
		signer:   signer,
		cache:    cache,
		validity: DefaultValidity,
		margin:   DefaultMargin,
		logger:   logger,
	}
}

// WithWindows overrides the validity window and cache safety margin.
func (h *Hydrator) WithWindows(validity, margin time.Duration) *Hydrator {
	h.validity = validity
	h.margin = margin
	return h
}

// SignedURL resolves one (bucket, path) pair, serving from cache while the
// previously issued URL is still comfortably inside its validity window.
func (h *Hydrator) SignedURL(ctx context.Context, bucket, path string) (string, error) {
	if url, ok := h.cache.Get(bucket, path); ok {
		return url, nil
	}

	url, err := h.signer.SignedURL(ctx, bucket, path, h.validity)
	if err != nil {
		return "", fmt.Errorf("signing %v/%v: %w", bucket, path, err)
	}

	h.cache.Set(bucket, path, url, h.validity-h.margin)
	return url, nil
}

// AttachmentURLs resolves a list of paths. Resolution never fails the caller:
// a path that cannot be signed is logged and omitted, so a total signing
// outage yields an empty list rather than a lost event.
func (h *Hydrator) AttachmentURLs(ctx context.Context, bucket string, paths []string) []string {
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		url, err := h.SignedURL(ctx, bucket, path)
		if err != nil {
			h.logger.Warn().Err(err).
				Str("bucket", bucket).
				Str("path", path).
				Msg("failed to sign attachment url")
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// Entity rewrites a JSON entity, replacing its attachmentFilePaths field with
// an attachmentUrls field of signed URLs. Entities without attachments gain
// an empty attachmentUrls field. Malformed input is returned unchanged.
func (h *Hydrator) Entity(ctx context.Context, raw json.RawMessage, bucket string) json.RawMessage {
	var entity map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entity); err != nil {
		h.logger.Warn().Err(err).Str("bucket", bucket).Msg("entity is not a json object, skipping hydration")
		return raw
	}

	var paths []string
	if rawPaths, ok := entity[fieldFilePaths]; ok {
		if err := json.Unmarshal(rawPaths, &paths); err != nil {
			h.logger.Warn().Err(err).Str("bucket", bucket).Msg("malformed attachmentFilePaths")
		}
		delete(entity, fieldFilePaths)
	}

	urls, err := json.Marshal(h.AttachmentURLs(ctx, bucket, paths))
	if err != nil {
		return raw
	}
	entity[fieldURLs] = urls

	hydrated, err := json.Marshal(entity)
	if err != nil {
		return raw
	}
	return hydrated
}
