package workflow

import (
	"context"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/scrapers/embassy"
	"visaworkflow-backend/lib/visa"
)

// EmbassySource scrapes records from the posts' requirement pages on every
// lookup, wrap it in a CachedSource to avoid refetching.
type EmbassySource struct {
	client *embassy.Client
}

func NewEmbassySource(client *embassy.Client) EmbassySource {
	return EmbassySource{client: client}
}

func (s EmbassySource) Lookup(ctx context.Context, post posts.ID, visaType string) (visa.Record, error) {
	if post == posts.DefaultPostID {
		return visa.Record{}, nil
	}
	return s.client.Fetch(ctx, post, visaType)
}
