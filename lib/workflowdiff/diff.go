package workflowdiff

import (
	"fmt"
	"regexp"
	"strings"
	"visaworkflow-backend/lib/textutil"
	"visaworkflow-backend/lib/visa"
)

type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

const (
	TitleChanged       = "title_changed"
	DescriptionChanged = "description_changed"
	OrderChanged       = "order_changed"
)

type Change struct {
	Key  string     `json:"key"`
	Kind ChangeKind `json:"kind"`
	// Fields lists what differs for a modified item, either one of the
	// *Changed constants or the json name of an entry field.
	Fields   []string `json:"fields,omitempty"`
	OldValue string   `json:"old_value,omitempty"`
	NewValue string   `json:"new_value,omitempty"`
}

type CategoryReport struct {
	Category visa.CategoryKey `json:"category"`
	Added    []Change         `json:"added,omitempty"`
	Removed  []Change         `json:"removed,omitempty"`
	Modified []Change         `json:"modified,omitempty"`
}

func (r CategoryReport) TotalChanges() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified)
}

type Report struct {
	Categories []CategoryReport `json:"categories"`
}

func (r Report) TotalChanges() int {
	total := 0
	for _, c := range r.Categories {
		total += c.TotalChanges()
	}
	return total
}

func (r Report) IsEmpty() bool {
	return r.TotalChanges() == 0
}

type item struct {
	key         string
	ordinal     int
	title       string
	description string
	fields      map[string]string
}

var (
	ordinalPrefix = regexp.MustCompile(`^\d+\s*[.)]\s*`)
	nonKeyChars   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// StepKey derives a key from a step title that survives renumbering and
// small rewordings: the first three words longer than two characters.
func StepKey(title string) string {
	clean := nonKeyChars.ReplaceAllString(strings.ToLower(title), "")
	var words []string
	for _, w := range strings.Fields(clean) {
		if len(w) <= 2 {
			continue
		}
		words = append(words, w)
		if len(words) == 3 {
			break
		}
	}
	return strings.Join(words, "_")
}

// splitLine splits a "N. Title: Description" line.
func splitLine(line string) (title, description string) {
	line = ordinalPrefix.ReplaceAllString(textutil.Clean(line), "")
	title, description, found := strings.Cut(line, ": ")
	if !found {
		return line, ""
	}
	return title, description
}

func lineItems(lines []string) []item {
	items := make([]item, len(lines))
	for i, line := range lines {
		title, description := splitLine(line)
		key := StepKey(title)
		if key == "" {
			key = textutil.NormalizeName(title)
		}
		items[i] = item{
			key:         key,
			ordinal:     i,
			title:       title,
			description: description,
		}
	}
	return items
}

func entryItems(entries []visa.Entry) []item {
	items := make([]item, len(entries))
	for i, e := range entries {
		items[i] = item{
			key:         textutil.NormalizeName(e.Name),
			ordinal:     i,
			title:       e.Name,
			description: e.Description,
			fields: map[string]string{
				"link":              e.Link,
				"purpose":           e.Purpose,
				"address":           e.Address,
				"phone":             e.Phone,
				"instructions_link": e.InstructionsLink,
			},
		}
	}
	return items
}

var entryFieldOrder = []string{"link", "purpose", "address", "phone", "instructions_link"}

func contentItems(content visa.Content) []item {
	var items []item
	if content.IsEntries() {
		items = entryItems(content.Entries())
	} else {
		items = lineItems(content.Lines())
	}

	// repeated keys get a positional suffix so every item stays addressable
	seen := map[string]int{}
	for i := range items {
		seen[items[i].key]++
		if n := seen[items[i].key]; n > 1 {
			items[i].key = fmt.Sprintf("%s#%d", items[i].key, n)
		}
	}
	return items
}

func compare(previous, incoming item) []string {
	var changes []string
	if previous.title != incoming.title {
		changes = append(changes, TitleChanged)
	}
	if previous.description != incoming.description {
		changes = append(changes, DescriptionChanged)
	}
	for _, field := range entryFieldOrder {
		if previous.fields[field] != incoming.fields[field] {
			changes = append(changes, field)
		}
	}
	if previous.ordinal != incoming.ordinal {
		changes = append(changes, OrderChanged)
	}
	return changes
}

func diffCategory(key visa.CategoryKey, previous, incoming []item) CategoryReport {
	report := CategoryReport{Category: key}

	previousByKey := make(map[string]item, len(previous))
	for _, p := range previous {
		previousByKey[p.key] = p
	}
	incomingByKey := make(map[string]item, len(incoming))
	for _, n := range incoming {
		incomingByKey[n.key] = n
	}

	for _, n := range incoming {
		p, ok := previousByKey[n.key]
		if !ok {
			report.Added = append(report.Added, Change{
				Key:      n.key,
				Kind:     Added,
				NewValue: n.title,
			})
			continue
		}
		fields := compare(p, n)
		if len(fields) > 0 {
			report.Modified = append(report.Modified, Change{
				Key:      n.key,
				Kind:     Modified,
				Fields:   fields,
				OldValue: p.title,
				NewValue: n.title,
			})
		}
	}
	for _, p := range previous {
		if _, ok := incomingByKey[p.key]; !ok {
			report.Removed = append(report.Removed, Change{
				Key:      p.key,
				Kind:     Removed,
				OldValue: p.title,
			})
		}
	}

	return report
}

// Diff compares two records category by category. categories without
// changes are left out of the report.
func Diff(previous, incoming visa.Record) Report {
	report := Report{Categories: []CategoryReport{}}
	for _, key := range visa.AllCategories() {
		var prevItems, nextItems []item
		if c, ok := previous.Get(key); ok {
			prevItems = contentItems(c)
		}
		if c, ok := incoming.Get(key); ok {
			nextItems = contentItems(c)
		}
		category := diffCategory(key, prevItems, nextItems)
		if category.TotalChanges() > 0 {
			report.Categories = append(report.Categories, category)
		}
	}
	return report
}
