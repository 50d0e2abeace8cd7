package pricewatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var challengeRows = [][]string{
	{"First Name", "Last Name ", "Company Name", "Role in Company", "Address", "Email", "Phone Number"},
	{"John", "Smith", "IT Solutions", "Analyst", "98 North Road", "jsmith@itsolutions.co.uk", "40716543298"},
	{"Jane", "Dorsey", "MediCare", "Medical Engineer", "11 Crown Street", "jdorsey@mc.com", "40791345621"},
}

var challengeWant = []ChallengeRecord{
	{"John", "Smith", "IT Solutions", "Analyst", "98 North Road", "jsmith@itsolutions.co.uk", "40716543298"},
	{"Jane", "Dorsey", "MediCare", "Medical Engineer", "11 Crown Street", "jdorsey@mc.com", "40791345621"},
}

func challengeWorkbook(t *testing.T, rows [][]string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr("Sheet1", cell, value))
		}
	}
	return f
}

func TestParseChallengeRecords(t *testing.T) {
	rows := append([][]string{}, challengeRows...)
	rows = append(rows, []string{"", "", ""})
	got, err := ParseChallengeRecords(rows)
	require.NoError(t, err)
	if diff := cmp.Diff(challengeWant, got); diff != "" {
		t.Errorf("(-want +got)\n%v", diff)
	}
}

func TestParseChallengeRecords_reorderedColumns(t *testing.T) {
	got, err := ParseChallengeRecords([][]string{
		{"Email", "Phone Number", "Address", "Role in Company", "Company Name", "Last Name", "First Name", "Notes"},
		{"a@b.ro", "0700", "Str. Lunga 1", "CEO", "SRL", "Pop", "Ana", "ignored"},
	})
	require.NoError(t, err)
	require.Equal(t, []ChallengeRecord{{"Ana", "Pop", "SRL", "CEO", "Str. Lunga 1", "a@b.ro", "0700"}}, got)
}

func TestParseChallengeRecords_missingHeader(t *testing.T) {
	_, err := ParseChallengeRecords([][]string{
		{"First Name", "Last Name", "Company Name", "Role in Company", "Address", "Phone Number"},
	})
	var fieldErr RecordFieldError
	require.ErrorAs(t, err, &fieldErr)
	require.Equal(t, "Email", fieldErr.Field)
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseChallengeRecords(nil)
	require.Error(t, err)
}

func TestReadChallengeRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "challenge.xlsx")
	f := challengeWorkbook(t, challengeRows)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadChallengeRecords(path, "")
	require.NoError(t, err)
	if diff := cmp.Diff(challengeWant, got); diff != "" {
		t.Errorf("(-want +got)\n%v", diff)
	}

	_, err = ReadChallengeRecords(filepath.Join(t.TempDir(), "none.xlsx"), "")
	require.ErrorAs(t, err, &PersistenceError{})
}

func TestChallenge_Run(t *testing.T) {
	f := challengeWorkbook(t, challengeRows)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	workbook := buf.Bytes()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(workbook)
	}))
	defer ts.Close()

	const site = "https://rpachallenge.test/"
	page := &fakePage{
		texts: map[string]string{
			challengeStart:  "Start",
			challengeSubmit: "",
		},
		clicks: map[string]map[string]string{
			challengeSubmit: {challengeResult: "Congratulations!"},
		},
	}
	for _, field := range challengeFields {
		page.texts[challengeControl(field.Control)] = ""
	}
	agent := newFakeAgent()
	agent.pages[site] = page

	dir := t.TempDir()
	logger := BufferedLogger{}
	challenge := &Challenge{
		Agent:          agent,
		Session:        NewSession("challenge_test", &logger),
		SiteURL:        site,
		SpreadsheetURL: ts.URL + "/assets/downloadFiles/challenge.xlsx",
		OutputDir:      dir,
		Log:            &logger,
	}
	require.NoError(t, challenge.Run(context.Background()))

	require.Equal(t, []string{challengeStart, challengeSubmit, challengeSubmit}, agent.clicked)
	require.Len(t, agent.filled, 2*len(challengeFields))
	require.Equal(t, challengeControl("labelFirstName")+"=John", agent.filled[0])
	require.Equal(t, challengeControl("labelPhone")+"=40791345621", agent.filled[len(agent.filled)-1])

	_, err = os.Stat(filepath.Join(dir, "challenge.xlsx"))
	require.NoError(t, err)
	shot, err := os.ReadFile(filepath.Join(dir, "challenge_result.png"))
	require.NoError(t, err)
	require.Contains(t, string(shot), challengeResult)
	require.Contains(t, logger.String(), "2 records to submit")
}

func TestChallenge_missingControl(t *testing.T) {
	agent := newFakeAgent()
	agent.pages["https://rpachallenge.test/"] = &fakePage{texts: map[string]string{challengeStart: "Start"}}
	require.NoError(t, agent.Navigate(context.Background(), "https://rpachallenge.test/"))

	challenge := &Challenge{Agent: agent, Log: DiscardLogger{}}
	err := challenge.Submit(context.Background(), challengeWant[0])
	var probe ProbeError
	require.ErrorAs(t, err, &probe)
	require.Equal(t, challengeControl("labelFirstName"), probe.Selector)
}
