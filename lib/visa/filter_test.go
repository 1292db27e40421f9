package visa

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return NewRecord(map[CategoryKey]Content{
		Steps: TextContent(
			"1. File Petition: file form I-130.",
			"2. Pay Fees: pay the processing fee.",
		),
		UserDocs: TextContent("Passport", "Birth Certificate"),
		Doctors: EntryContent(
			Entry{Name: "Clinic A", Address: "Street 1", Phone: "+34 1"},
			Entry{Name: "Clinic B", Address: "Street 2", Phone: "+34 2"},
		),
	})
}

func TestFilterSubset(t *testing.T) {
	record := sampleRecord()

	testCases := []struct {
		name      string
		requested []CategoryKey
		expected  []CategoryKey
	}{
		{
			name:      "all present",
			requested: []CategoryKey{Doctors, Steps},
			expected:  []CategoryKey{Doctors, Steps},
		},
		{
			name:      "absent keys are skipped",
			requested: []CategoryKey{GovDocs, Steps, GovLinks},
			expected:  []CategoryKey{Steps},
		},
		{
			name:      "nothing requested",
			requested: nil,
			expected:  []CategoryKey{},
		},
		{
			name:      "every category",
			requested: AllCategories(),
			expected:  []CategoryKey{Steps, UserDocs, Doctors},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			result := Filter(record, test.requested)
			require.Equal(t, test.expected, result.Categories())

			for _, key := range result.Categories() {
				require.True(t, record.Has(key))
				require.Contains(t, test.requested, key)

				got, _ := result.Get(key)
				want, _ := record.Get(key)
				require.True(t, want.Equal(got))
			}
		})
	}
}

func TestFilterEmptyRecord(t *testing.T) {
	result := Filter(Record{}, AllCategories())
	require.True(t, result.IsEmpty())

	out, err := json.Marshal(result)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(out))
}

func TestFilterIdempotent(t *testing.T) {
	record := sampleRecord()
	requested := []CategoryKey{Doctors, GovLinks, Steps}

	once := Filter(record, requested)
	twice := Filter(record, append(append([]CategoryKey{}, requested...), requested...))
	require.True(t, once.Equal(twice))

	dup := Filter(record, []CategoryKey{Steps, Steps})
	require.Equal(t, 1, dup.Len())
	single := Filter(record, []CategoryKey{Steps})
	require.True(t, single.Equal(dup))
}

func TestFilterOrder(t *testing.T) {
	record := sampleRecord()

	a := Filter(record, []CategoryKey{Steps, Doctors})
	b := Filter(record, []CategoryKey{Doctors, Steps})
	require.ElementsMatch(t, a.Categories(), b.Categories())

	out, err := json.Marshal(b)
	require.NoError(t, err)
	doctors := strings.Index(string(out), `"Doctors"`)
	steps := strings.Index(string(out), `"Steps"`)
	require.Less(t, doctors, steps)
}

func TestResultRoundTripKeepsOrder(t *testing.T) {
	result := Filter(sampleRecord(), []CategoryKey{UserDocs, Doctors, Steps})
	out, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, []CategoryKey{UserDocs, Doctors, Steps}, decoded.Categories())
	require.True(t, result.Equal(decoded))
}

func TestResultDecodesNull(t *testing.T) {
	var direct Result
	require.NoError(t, direct.UnmarshalJSON([]byte(" null ")))
	require.True(t, direct.IsEmpty())
	require.True(t, direct.Equal(Filter(Record{}, []CategoryKey{Steps})))

	var wrapped struct {
		Result Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"result": null}`), &wrapped))
	require.True(t, wrapped.Result.IsEmpty())

	var record Record
	require.NoError(t, json.Unmarshal([]byte(`null`), &record))
	require.True(t, record.IsEmpty())

	require.Error(t, direct.UnmarshalJSON([]byte(`["Steps"]`)))
}
