package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"visaworkflow-backend/lib/configutil"
	configlibsql "visaworkflow-backend/lib/configutil/libsql"
	"visaworkflow-backend/lib/recordstore/db"
	"visaworkflow-backend/lib/visa"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
		valid  bool
	}{
		{name: "zero value uses the static source", config: Config{}, valid: true},
		{name: "file without path", config: Config{Source: SourceConfig{Kind: SourceFile}}},
		{name: "embassy without template", config: Config{Source: SourceConfig{Kind: SourceEmbassy}}},
		{name: "unknown kind", config: Config{Source: SourceConfig{Kind: "ftp"}}},
		{
			name:   "cache without database",
			config: Config{Source: SourceConfig{CacheTTL: "1h"}},
		},
		{
			name: "cache with database",
			config: Config{
				Source:   SourceConfig{CacheTTL: "1h"},
				Database: &configlibsql.Struct{File: ":memory:"},
			},
			valid: true,
		},
		{
			name:   "bad interval",
			config: Config{Refresh: RefreshConfig{Interval: "often"}},
		},
		{
			name: "refresh without database",
			config: Config{Refresh: RefreshConfig{
				Interval: "6h",
				Targets:  []Target{{Country: "Andorra", VisaType: "IR-1"}},
			}},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			err := test.config.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	dataFile, err := filepath.Abs(filepath.Join("testdata", "records.json5"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		source: { kind: "embassy", embassy: { url_template: "https://example.com/{post}" } },
		posts: {
			Andorra: { id: "barcelona", name: "U.S. Consulate General Barcelona" },
		},
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		source: { kind: "file", data_file: "`+filepath.ToSlash(dataFile)+`" },
	}`), 0600))

	config, err := configutil.ReadConfig[Config](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, SourceFile, config.Source.Kind)
	require.Equal(t, "https://example.com/{post}", config.Source.Embassy.UrlTemplate)

	source, err := config.OpenDataSource(nil)
	require.NoError(t, err)

	agent := NewAgent(NewResolver(config.Directory(), source))
	result, err := agent.Execute(context.Background(), Query{
		Country:    "Andorra",
		VisaType:   "IR-1",
		Categories: []visa.CategoryKey{visa.Doctors},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())

	_, ok := config.Directory().Lookup("Spain")
	require.False(t, ok)
}

func TestOpenDataSourceCached(t *testing.T) {
	config := Config{
		Source:   SourceConfig{Kind: SourceStatic, CacheTTL: "10m"},
		Database: &configlibsql.Struct{File: ":memory:"},
	}
	require.NoError(t, config.Validate())

	database, err := config.Database.OpenDB(db.Schema)
	require.NoError(t, err)
	defer database.Close()

	source, err := config.OpenDataSource(database)
	require.NoError(t, err)
	_, ok := source.(CachedSource)
	require.True(t, ok)

	record, err := source.Lookup(context.Background(), "barcelona", "IR-1")
	require.NoError(t, err)
	require.Equal(t, visa.AllCategories(), record.Categories())

	_, err = config.OpenDataSource(nil)
	require.Error(t, err)
}
