package embassy

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"visaworkflow-backend/lib/htmlutil"
	"visaworkflow-backend/lib/textutil"
	"visaworkflow-backend/lib/visa"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// the page structure of a post is not standardized, these selectors cover
// the layouts embassy and uscis pages are known to use.
const (
	stepBlockSelector   = ".step"
	stepListSelector    = "ol.steps, .steps ol, .requirements-section ol"
	doctorSelector      = ".doctor, .physician, .panel-physician"
	govDocSelector      = ".gov-doc"
	userDocSelector     = ".user-docs li"
	govLinkSelector     = "a.gov-link"
	stepHeadingSelector = "h2, h3, h4"
)

var stepKeywords = []string{"step", "requirement", "examination", "appointment", "fee", "interview", "document", "form"}

var (
	stepPrefix    = regexp.MustCompile(`(?i)^(step\s*\d+\s*[:.\-]|\d+\s*[.)])\s*`)
	labelledValue = regexp.MustCompile(`(?i)^(address|phone|telephone|tel)\s*:\s*(.+)$`)
)

// Parse normalizes a requirements page into a record. categories for which
// nothing was found are left out.
func Parse(ctx context.Context, doc *goquery.Document, base *url.URL) visa.Record {
	ctx, span := tracer.Start(ctx, "Parse")
	defer span.End()

	content := map[visa.CategoryKey]visa.Content{}

	steps := parseSteps(doc)
	if len(steps) > 0 {
		content[visa.Steps] = visa.TextContent(steps...)
	}
	govDocs := parseGovDocs(ctx, doc, base)
	if len(govDocs) > 0 {
		content[visa.GovDocs] = visa.EntryContent(govDocs...)
	}
	userDocs := parseUserDocs(doc)
	if len(userDocs) > 0 {
		content[visa.UserDocs] = visa.TextContent(userDocs...)
	}
	govLinks := parseGovLinks(ctx, doc, base)
	if len(govLinks) > 0 {
		content[visa.GovLinks] = visa.EntryContent(govLinks...)
	}
	doctors := parseDoctors(ctx, doc, base)
	if len(doctors) > 0 {
		content[visa.Doctors] = visa.EntryContent(doctors...)
	}

	span.SetAttributes(
		attribute.Int("steps", len(steps)),
		attribute.Int("gov_docs", len(govDocs)),
		attribute.Int("user_docs", len(userDocs)),
		attribute.Int("gov_links", len(govLinks)),
		attribute.Int("doctors", len(doctors)),
	)

	return visa.NewRecord(content)
}

type step struct {
	title       string
	description string
}

func formatSteps(steps []step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		if s.description == "" {
			out[i] = fmt.Sprintf("%d. %s", i+1, s.title)
			continue
		}
		out[i] = fmt.Sprintf("%d. %s: %s", i+1, s.title, s.description)
	}
	return out
}

func cleanStepTitle(title string) string {
	title = stepPrefix.ReplaceAllString(textutil.Clean(title), "")
	return strings.TrimRight(title, ": ")
}

func parseSteps(doc *goquery.Document) []string {
	var steps []step

	doc.Find(stepBlockSelector).Each(func(_ int, s *goquery.Selection) {
		heading := s.Find("h2, h3, .step-title").First()
		title := cleanStepTitle(htmlutil.Text(heading))
		if title == "" {
			return
		}
		steps = append(steps, step{
			title:       title,
			description: htmlutil.Text(s.Find("p")),
		})
	})
	if len(steps) > 0 {
		return formatSteps(steps)
	}

	doc.Find(stepListSelector).Find("li").Each(func(_ int, li *goquery.Selection) {
		full := htmlutil.Text(li)
		titleSel := li.Find("strong, b, .step-title").First()
		if titleSel.Length() == 0 {
			title := cleanStepTitle(full)
			if title != "" {
				steps = append(steps, step{title: title})
			}
			return
		}

		rawTitle := htmlutil.Text(titleSel)
		title := cleanStepTitle(rawTitle)
		if title == "" {
			return
		}
		description := htmlutil.Text(li.Find("p"))
		if description == "" {
			description = strings.TrimSpace(strings.TrimPrefix(full, rawTitle))
			description = strings.TrimSpace(strings.TrimLeft(description, ":.-"))
		}
		steps = append(steps, step{title: title, description: description})
	})
	if len(steps) > 0 {
		return formatSteps(steps)
	}

	doc.Find(stepHeadingSelector).Each(func(_ int, h *goquery.Selection) {
		title := htmlutil.Text(h)
		if !textutil.MatchName(title, stepKeywords) {
			return
		}
		title = cleanStepTitle(title)
		if title == "" {
			return
		}
		steps = append(steps, step{
			title:       title,
			description: htmlutil.Text(h.NextAllFiltered("p").First()),
		})
	})
	return formatSteps(steps)
}

func firstLink(ctx context.Context, s *goquery.Selection, base *url.URL) string {
	anchors := htmlutil.GetAnchors(ctx, s.Find("a[href]"), base)
	if len(anchors) == 0 {
		return ""
	}
	return anchors[0].Href
}

func parseGovDocs(ctx context.Context, doc *goquery.Document, base *url.URL) []visa.Entry {
	var entries []visa.Entry
	doc.Find(govDocSelector).Each(func(_ int, s *goquery.Selection) {
		name := htmlutil.Text(s.Find("h3, h4, .name").First())
		if name == "" {
			name = htmlutil.Text(s.Find("a").First())
		}
		if name == "" {
			return
		}
		entries = append(entries, visa.Entry{
			Name:        name,
			Link:        firstLink(ctx, s, base),
			Description: htmlutil.Text(s.Find("p")),
		})
	})
	return entries
}

func parseUserDocs(doc *goquery.Document) []string {
	var docs []string
	doc.Find(userDocSelector).Each(func(_ int, li *goquery.Selection) {
		text := htmlutil.Text(li)
		if text != "" {
			docs = append(docs, text)
		}
	})
	return docs
}

func parseGovLinks(ctx context.Context, doc *goquery.Document, base *url.URL) []visa.Entry {
	var entries []visa.Entry
	for _, a := range htmlutil.GetAnchors(ctx, doc.Find(govLinkSelector), base) {
		if a.Name == "" {
			continue
		}
		entries = append(entries, visa.Entry{
			Name:    a.Name,
			Link:    a.Href,
			Purpose: a.Title,
		})
	}
	return entries
}

func labelled(s *goquery.Selection, label string) string {
	value := htmlutil.Text(s.Find("." + label).First())
	if value != "" {
		return value
	}
	s.Find("p, li, dd, span").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		groups := labelledValue.FindStringSubmatch(htmlutil.Text(item))
		if len(groups) < 3 {
			return true
		}
		found := strings.ToLower(groups[1])
		if found == label || (label == "phone" && (found == "telephone" || found == "tel")) {
			value = strings.TrimSpace(groups[2])
			return false
		}
		return true
	})
	return value
}

func parseDoctors(ctx context.Context, doc *goquery.Document, base *url.URL) []visa.Entry {
	var entries []visa.Entry
	doc.Find(doctorSelector).Each(func(_ int, s *goquery.Selection) {
		name := htmlutil.Text(s.Find("h3, .name, .doctor-name").First())
		if name == "" {
			return
		}
		entries = append(entries, visa.Entry{
			Name:             name,
			Address:          labelled(s, "address"),
			Phone:            labelled(s, "phone"),
			InstructionsLink: firstLink(ctx, s, base),
		})
	})
	return entries
}
