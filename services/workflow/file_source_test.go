package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"visaworkflow-backend/lib/visa"

	"github.com/stretchr/testify/require"
)

func TestLoadFileSource(t *testing.T) {
	source, err := LoadFileSource(filepath.Join("testdata", "records.json5"))
	require.NoError(t, err)
	ctx := context.Background()

	record, err := source.Lookup(ctx, "barcelona", "IR-1")
	require.NoError(t, err)
	require.Equal(t, []visa.CategoryKey{visa.Steps, visa.Doctors}, record.Categories())

	doctors, _ := record.Get(visa.Doctors)
	require.Equal(t, []visa.Entry{{Name: "Centro Médico Teknon", Phone: "+34 932 90 62 00"}}, doctors.Entries())

	record, err = source.Lookup(ctx, "barcelona", "K-1")
	require.NoError(t, err)
	require.True(t, record.IsEmpty())

	record, err = source.Lookup(ctx, "lisbon", "IR-1")
	require.NoError(t, err)
	docs, _ := record.Get(visa.UserDocs)
	require.Equal(t, []string{"Passport", "Birth Certificate"}, docs.Lines())

	record, err = source.Lookup(ctx, "default_post", "IR-1")
	require.NoError(t, err)
	require.True(t, record.IsEmpty())
}

func TestLoadFileSourceMalformed(t *testing.T) {
	testCases := []struct {
		name     string
		contents string
		contains string
	}{
		{
			name:     "syntax",
			contents: `{ barcelona: { "IR-1": `,
			contains: "parse",
		},
		{
			name:     "unknown category",
			contents: `{ barcelona: { "IR-1": { Visas: ["a"] } } }`,
			contains: "barcelona/IR-1",
		},
		{
			name:     "bad content shape",
			contents: `{ madrid: { "IR-1": { Steps: [1, 2] } } }`,
			contains: "madrid/IR-1",
		},
		{
			name:     "unknown entry field",
			contents: `{ madrid: { "K-1": { Doctors: [{ Name: "a", Fax: "b" }] } } }`,
			contains: "madrid/K-1",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "records.json5")
			require.NoError(t, os.WriteFile(path, []byte(test.contents), 0600))

			_, err := LoadFileSource(path)
			require.Error(t, err)
			require.Contains(t, err.Error(), test.contains)
		})
	}

	_, err := LoadFileSource(filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
