package visa

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

// CategoryKey names one of the fixed slices of a Record a caller may request.
type CategoryKey int

const (
	Steps CategoryKey = iota + 1
	GovDocs
	UserDocs
	GovLinks
	Doctors
)

var categoryNames = [...]string{
	Steps:    "Steps",
	GovDocs:  "GovDocs",
	UserDocs: "UserDocs",
	GovLinks: "GovLinks",
	Doctors:  "Doctors",
}

// AllCategories returns every category in canonical order.
func AllCategories() []CategoryKey {
	return []CategoryKey{Steps, GovDocs, UserDocs, GovLinks, Doctors}
}

// CategoryNames returns the canonical names, used for help text and errors.
func CategoryNames() []string {
	all := AllCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.String()
	}
	return names
}

func (c CategoryKey) Valid() bool {
	return c >= Steps && c <= Doctors
}

func (c CategoryKey) String() string {
	if !c.Valid() {
		return fmt.Sprintf("CategoryKey(%d)", int(c))
	}
	return categoryNames[c]
}

func ParseCategory(name string) (CategoryKey, error) {
	for _, c := range AllCategories() {
		if categoryNames[c] == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf(
		"%w: %q (choose from %s)",
		ErrUnknownCategory, name, strings.Join(CategoryNames(), ", "),
	)
}

// ParseCategories validates a request at the boundary. order and duplicates
// are preserved, every invalid name is reported.
func ParseCategories(names []string) ([]CategoryKey, error) {
	out := make([]CategoryKey, 0, len(names))
	var errs []error
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (c CategoryKey) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

func (c *CategoryKey) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// NormalizeVisaType is the form visa types are matched and stored in.
// classifications are compared exactly, only surrounding whitespace is
// dropped.
func NormalizeVisaType(visaType string) string {
	return strings.TrimSpace(visaType)
}
