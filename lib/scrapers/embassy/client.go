package embassy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/restyutil"
	"visaworkflow-backend/lib/visa"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	// UrlTemplate locates the requirements page of a post, `{post}` and
	// `{visa_type}` are substituted with lowercased, path escaped values.
	UrlTemplate      string
	Timeout          time.Duration
	RetryCount       int
	CloudflareBypass bool
	UserAgent        string
}

type Client struct {
	http     *resty.Client
	template string
}

func NewClient(opts Options) (*Client, error) {
	if !strings.Contains(opts.UrlTemplate, "{post}") {
		return nil, fmt.Errorf("url template %q must contain {post}", opts.UrlTemplate)
	}
	_, err := url.Parse(expand(opts.UrlTemplate, "post", "visa"))
	if err != nil {
		return nil, fmt.Errorf("invalid url template: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(timeout)
	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() == http.StatusTooManyRequests ||
			res.StatusCode() >= http.StatusInternalServerError
	})
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{http: client, template: opts.UrlTemplate}, nil
}

func expand(template, post, visaType string) string {
	return strings.NewReplacer(
		"{post}", url.PathEscape(strings.ToLower(post)),
		"{visa_type}", url.PathEscape(strings.ToLower(visaType)),
	).Replace(template)
}

func (c *Client) PageURL(post posts.ID, visaType string) string {
	return expand(c.template, string(post), visaType)
}

// Fetch scrapes the requirements page published by post for visaType.
// a missing page is not an error, it yields an empty record.
func (c *Client) Fetch(ctx context.Context, post posts.ID, visaType string) (visa.Record, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	link := c.PageURL(post, visaType)
	span.SetAttributes(
		attribute.String("post", string(post)),
		attribute.String("visa_type", visaType),
		attribute.String("url", link),
	)

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return visa.Record{}, fmt.Errorf("fetch %s: %w", link, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return visa.Record{}, nil
	}
	if res.IsError() {
		err := fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, res.StatusCode(), link)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return visa.Record{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return visa.Record{}, err
	}

	base, err := url.Parse(link)
	if err != nil {
		return visa.Record{}, err
	}
	return Parse(ctx, doc, base), nil
}
