package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/rollcall/internal/model"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSpeakers(t *testing.T) {
	profiles := []model.PersonProfile{
		{
			Person: model.PersonIdentity{DisplayName: "Jane Doe", NormalizedName: "jane doe", ProfileURL: "https://linkedin.com/in/jane"},
			Talks: []model.Talk{
				{ConferenceName: "Devcon", ConferenceYear: 2024, Title: "A"},
				{ConferenceName: "Devcon", ConferenceYear: 2024, Title: "B, with comma"},
			},
			Employment: &model.EmployeeRow{
				Flag:      model.FlagFormer,
				Companies: []model.CompanyStatus{{CompanyID: "acme", Status: model.StatusFormer}},
			},
		},
		{Person: model.PersonIdentity{DisplayName: "Solo"}, Talks: []model.Talk{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSpeakers(&buf, profiles))

	rows := readCSV(t, buf.Bytes())
	require.Len(t, rows, 3)
	assert.Equal(t, speakerHeader, rows[0])
	assert.Equal(t, "2", rows[1][5])
	assert.Equal(t, "Devcon 2024", rows[1][6])
	assert.Equal(t, "A; B, with comma", rows[1][7])
	assert.Equal(t, "former", rows[1][8])
	assert.Equal(t, "acme (former)", rows[1][9])
	assert.Equal(t, "0", rows[2][5])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteEmployees(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.EmployeeRow{{
		DisplayName: "Dave",
		ProfileURL:  "https://linkedin.com/in/dave",
		Flag:        model.FlagMultiple,
		Companies: []model.CompanyStatus{
			{CompanyID: "acme", Status: model.StatusCurrent, FirstSeen: march, LastSeen: march},
			{CompanyID: "globex", Status: model.StatusCurrent, FirstSeen: april, LastSeen: april},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteEmployees(&buf, rows))

	got := readCSV(t, buf.Bytes())
	require.Len(t, got, 2)
	assert.Equal(t, []string{
		"Dave", "https://linkedin.com/in/dave", "", "", "multiple",
		"acme (current); globex (current)", "2024-03-01", "2024-04-01",
	}, got[1])
}

func TestWriteUnresolved_SortedByName(t *testing.T) {
	in := []model.Unresolved{
		{PersonID: "z", DisplayName: "zed", Reason: model.ReasonNoCandidates},
		{PersonID: "a", DisplayName: "Amy", Reason: model.ReasonOracleDeclined, Detail: "two equally likely"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUnresolved(&buf, in))

	got := readCSV(t, buf.Bytes())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "Amy", "oracle_declined", "two equally likely"}, got[1])
	assert.Equal(t, "z", in[0].PersonID, "input must not be reordered")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", UnresolvedFile)
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteUnresolved(w, nil)
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "person_id,name,reason,detail\n", string(data))
}

func TestSummaryTable(t *testing.T) {
	s := model.NewRunSummary("run-1", "resolve", time.Now())
	s.Considered = 5
	s.Matched[model.MethodExactUnique] = 2
	s.Matched[model.MethodOracleDisambiguated] = 1
	s.Unresolved[model.ReasonNoCandidates] = 2

	out := SummaryTable(s)
	for _, want := range []string{"Considered", "Matched", "exact_unique", "oracle_disambiguated", "no_candidates", "Unresolved"} {
		assert.Contains(t, out, want)
	}

	var buf bytes.Buffer
	s.Outputs = []string{"out/unresolved.csv"}
	PrintSummary(&buf, s)
	assert.True(t, strings.Contains(buf.String(), "✓ Wrote out/unresolved.csv"))
}

func TestSummaryTable_Reconcile(t *testing.T) {
	s := model.NewRunSummary("run-2", "reconcile", time.Now())
	s.Inserted, s.Updated, s.Skipped = 1, 1, 3

	out := SummaryTable(s)
	assert.Contains(t, out, "Inserted")
	assert.Contains(t, out, "Unchanged")
}
