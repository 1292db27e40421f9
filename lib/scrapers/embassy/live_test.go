package embassy

import (
	"context"
	"testing"
	"time"
	devenv "visaworkflow-backend/dev/env"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/visa"

	"github.com/stretchr/testify/require"
)

type liveTarget struct {
	UrlTemplate      string `json:"url_template"`
	Post             string `json:"post"`
	VisaType         string `json:"visa_type"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

func TestLiveFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	target, err := devenv.GetStateConfig[liveTarget]("embassy_live.json5")
	if err != nil {
		t.Skip("no live target configured:", err)
	}

	client, err := NewClient(Options{
		UrlTemplate:      target.UrlTemplate,
		Timeout:          30 * time.Second,
		RetryCount:       1,
		CloudflareBypass: target.CloudflareBypass,
	})
	require.NoError(t, err)

	record, err := client.Fetch(context.Background(), posts.ID(target.Post), target.VisaType)
	require.NoError(t, err)
	require.True(t, record.Has(visa.Steps), "expected the live page to list at least one step")
}
