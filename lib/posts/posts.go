package posts

import (
	"slices"
	"visaworkflow-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// ID identifies a processing post, the consular entity handling a
// country's visa applications.
type ID string

// DefaultPostID is returned for countries without a known post, there is no
// data guaranteed for it.
const DefaultPostID ID = "default_post"

type Post struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
	URL     string `json:"url"`
}

func DefaultPost() Post {
	return Post{ID: DefaultPostID, Name: "Default post"}
}

// Directory maps countries of residence onto processing posts.
type Directory struct {
	byCountry map[string]Post
	countries []string
}

// NewDirectory builds a directory from country names to posts, country
// names are normalized so that lookups ignore case and spacing.
func NewDirectory(entries map[string]Post) Directory {
	d := Directory{byCountry: make(map[string]Post, len(entries))}
	for country, post := range entries {
		key := textutil.NormalizeName(country)
		if key == "" || post.ID == "" {
			continue
		}
		if _, exists := d.byCountry[key]; !exists {
			d.countries = append(d.countries, country)
		}
		d.byCountry[key] = post
	}
	slices.Sort(d.countries)
	return d
}

var barcelona = Post{
	ID:      "barcelona",
	Name:    "U.S. Consulate General Barcelona",
	City:    "Barcelona",
	Country: "Spain",
	URL:     "https://es.usembassy.gov/embassy-consulates/barcelona/",
}

var madrid = Post{
	ID:      "madrid",
	Name:    "U.S. Embassy Madrid",
	City:    "Madrid",
	Country: "Spain",
	URL:     "https://es.usembassy.gov/embassy-consulates/madrid/",
}

// DefaultDirectory is the built-in table of posts.
func DefaultDirectory() Directory {
	return NewDirectory(map[string]Post{
		"Andorra": barcelona,
		"Spain":   madrid,
		"Portugal": {
			ID:      "lisbon",
			Name:    "U.S. Embassy Lisbon",
			City:    "Lisbon",
			Country: "Portugal",
			URL:     "https://pt.usembassy.gov/",
		},
		"France": {
			ID:      "paris",
			Name:    "U.S. Embassy Paris",
			City:    "Paris",
			Country: "France",
			URL:     "https://fr.usembassy.gov/",
		},
		"Monaco": {
			ID:      "paris",
			Name:    "U.S. Embassy Paris",
			City:    "Paris",
			Country: "France",
			URL:     "https://fr.usembassy.gov/",
		},
	})
}

// Lookup returns the post serving country. unknown countries resolve to
// the default post and false.
func (d Directory) Lookup(country string) (Post, bool) {
	post, ok := d.byCountry[textutil.NormalizeName(country)]
	if !ok {
		return DefaultPost(), false
	}
	return post, true
}

// Countries lists the known countries, sorted.
func (d Directory) Countries() []string {
	return slices.Clone(d.countries)
}

// Posts lists the distinct known posts ordered by id.
func (d Directory) Posts() []Post {
	seen := map[ID]struct{}{}
	var out []Post
	for _, country := range d.countries {
		post := d.byCountry[textutil.NormalizeName(country)]
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		out = append(out, post)
	}
	slices.SortFunc(out, func(a, b Post) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Suggest returns the known country most similar to the given name along
// with its Jaro-Winkler similarity, or an empty string when nothing is known.
func (d Directory) Suggest(country string) (string, float64) {
	target := textutil.NormalizeName(country)

	var best string
	var bestSimilarity float64
	for _, known := range d.countries {
		similarity := matchr.JaroWinkler(target, textutil.NormalizeName(known), false)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			best = known
		}
	}
	return best, bestSimilarity
}
