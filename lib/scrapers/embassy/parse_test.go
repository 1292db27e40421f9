package embassy

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"visaworkflow-backend/lib/visa"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func requireLines(t *testing.T, record visa.Record, key visa.CategoryKey, expected []string) {
	t.Helper()
	content, ok := record.Get(key)
	require.True(t, ok, "missing %s", key)
	require.False(t, content.IsEntries())
	if diff := cmp.Diff(expected, content.Lines()); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", key, diff)
	}
}

func requireEntries(t *testing.T, record visa.Record, key visa.CategoryKey, expected []visa.Entry) {
	t.Helper()
	content, ok := record.Get(key)
	require.True(t, ok, "missing %s", key)
	require.True(t, content.IsEntries())
	if diff := cmp.Diff(expected, content.Entries()); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", key, diff)
	}
}

func TestParseConsulatePage(t *testing.T) {
	doc := loadFixture(t, "barcelona_ir-1.html")
	record := Parse(context.Background(), doc, mustURL(t, "https://es.usembassy.gov/barcelona/ir-1"))

	require.Equal(t, visa.AllCategories(), record.Categories())

	requireLines(t, record, visa.Steps, []string{
		"1. Submit Petition: Your U.S. citizen spouse files Form I-130 with USCIS.",
		"2. Pay Fees: Pay the immigrant visa application processing fee.",
		"3. Medical Examination: Complete a medical exam with an authorized panel physician.",
		"4. Interview: Attend your visa interview at the consulate.",
	})
	requireEntries(t, record, visa.GovDocs, []visa.Entry{
		{
			Name:        "Form DS-260",
			Link:        "https://ceac.state.gov/IV/",
			Description: "Immigrant visa electronic application.",
		},
		{
			Name:        "Form I-864",
			Link:        "https://es.usembassy.gov/forms/i-864",
			Description: "Proof the petitioner can support you financially.",
		},
	})
	requireLines(t, record, visa.UserDocs, []string{
		"Valid passport",
		"Birth certificate",
		"Marriage certificate",
	})
	requireEntries(t, record, visa.GovLinks, []visa.Entry{
		{Name: "Travel.State.gov", Link: "https://travel.state.gov", Purpose: "Visa information"},
		{Name: "USCIS", Link: "https://www.uscis.gov", Purpose: "Petitions"},
	})
	requireEntries(t, record, visa.Doctors, []visa.Entry{
		{
			Name:             "Dr. Maria Garcia",
			Address:          "Carrer de Balmes 123, Barcelona",
			Phone:            "+34 93 123 4567",
			InstructionsLink: "https://es.usembassy.gov/medical/garcia",
		},
		{
			Name:    "Dr. Jordi Puig",
			Address: "Avinguda Diagonal 456, Barcelona",
			Phone:   "+34 93 765 4321",
		},
	})
}

func TestParseHeadingSteps(t *testing.T) {
	doc := loadFixture(t, "uscis_generic.html")
	record := Parse(context.Background(), doc, nil)

	require.Equal(t, []visa.CategoryKey{visa.Steps}, record.Categories())
	requireLines(t, record, visa.Steps, []string{
		"1. Required Forms: File Form I-130 and supporting evidence.",
		"2. Medical Examination: Schedule a medical exam with a designated civil surgeon.",
		"3. Biometrics Appointment: USCIS will schedule a biometrics appointment.",
	})
}

func TestParseListSteps(t *testing.T) {
	doc := loadFixture(t, "list_steps.html")
	record := Parse(context.Background(), doc, nil)

	requireLines(t, record, visa.Steps, []string{
		"1. Create an account: Register on the consular portal.",
		"2. Book: Book an interview slot.",
		"3. Attend",
	})
}

func TestParseEmptyPage(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(stringsReader("<html><body><p>Nothing here.</p></body></html>"))
	require.NoError(t, err)
	record := Parse(context.Background(), doc, nil)
	require.True(t, record.IsEmpty())
}
