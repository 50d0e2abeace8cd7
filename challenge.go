package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ChallengeRecord is one contact row of the challenge spreadsheet.
type ChallengeRecord struct {
	FirstName   string
	LastName    string
	CompanyName string
	Role        string
	Address     string
	Email       string
	Phone       string
}

type challengeField struct {
	Header  string // spreadsheet column header
	Control string // ng-reflect-name of the form input
	value   func(r *ChallengeRecord) *string
}

var challengeFields = []challengeField{
	{"First Name", "labelFirstName", func(r *ChallengeRecord) *string { return &r.FirstName }},
	{"Last Name", "labelLastName", func(r *ChallengeRecord) *string { return &r.LastName }},
	{"Company Name", "labelCompanyName", func(r *ChallengeRecord) *string { return &r.CompanyName }},
	{"Role in Company", "labelRole", func(r *ChallengeRecord) *string { return &r.Role }},
	{"Address", "labelAddress", func(r *ChallengeRecord) *string { return &r.Address }},
	{"Email", "labelEmail", func(r *ChallengeRecord) *string { return &r.Email }},
	{"Phone Number", "labelPhone", func(r *ChallengeRecord) *string { return &r.Phone }},
}

var ErrMissingColumn = errors.New("column missing from header")

// ParseChallengeRecords maps rows (header first) to records. Every expected
// header must be present; extra columns are ignored, blank rows skipped.
func ParseChallengeRecords(rows [][]string) ([]ChallengeRecord, error) {
	if len(rows) == 0 {
		return nil, RecordFieldError{0, "header", errors.New("empty sheet")}
	}
	columns := map[string]int{}
	for i, h := range rows[0] {
		columns[strings.TrimSpace(h)] = i
	}
	index := make([]int, len(challengeFields))
	for i, f := range challengeFields {
		col, ok := columns[f.Header]
		if !ok {
			return nil, RecordFieldError{HeaderRow, f.Header, ErrMissingColumn}
		}
		index[i] = col
	}

	var records []ChallengeRecord
	for r, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		var record ChallengeRecord
		for i, f := range challengeFields {
			if index[i] < len(row) {
				*f.value(&record) = strings.TrimSpace(row[index[i]])
			}
		}
		if record.FirstName == "" && record.Email == "" {
			return nil, RecordFieldError{r + 2, "First Name", errors.New("row has neither name nor email")}
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadChallengeRecords reads the named sheet, or the first one when sheet is
// empty.
func ReadChallengeRecords(path, sheet string) ([]ChallengeRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, PersistenceError{path, "open", err}
	}
	defer f.Close()
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, PersistenceError{path, "read", err}
	}
	return ParseChallengeRecords(rows)
}

// Challenge solves the form challenge: it downloads the contact spreadsheet
// and submits every row through the site's form.
type Challenge struct {
	Agent          WebAgent
	Session        *Session
	SiteURL        string
	SpreadsheetURL string
	OutputDir      string
	Timeout        time.Duration
	Log            Logger
}

var (
	challengeStart  = ElementWithText("button", "Start")
	challengeSubmit = ElementWithAttr("input", "type", "submit")
	challengeResult = "div.congratulations"
)

func challengeControl(name string) string {
	return ElementWithAttr("input", "ng-reflect-name", name)
}

func (challenge *Challenge) timeout() time.Duration {
	if challenge.Timeout == 0 {
		return DefaultTimeout
	}
	return challenge.Timeout
}

// Submit fills and submits the form once.
func (challenge *Challenge) Submit(ctx context.Context, record ChallengeRecord) error {
	for _, f := range challengeFields {
		value := *f.value(&record)
		if err := FillSelector(ctx, challenge.Agent, challengeControl(f.Control), value, challenge.timeout()); err != nil {
			return fmt.Errorf("%v: %w", f.Header, err)
		}
	}
	return ClickSelector(ctx, challenge.Agent, challengeSubmit, challenge.timeout())
}

func (challenge *Challenge) Run(ctx context.Context) error {
	filename := filepath.Base(challenge.SpreadsheetURL)
	local, err := challenge.Session.Download(ctx, challenge.SpreadsheetURL, challenge.OutputDir, filename)
	if err != nil {
		return fmt.Errorf("download challenge: %w", err)
	}
	if err := challenge.Session.SaveCookie(); err != nil {
		challenge.Log.Printf("save cookie: %v", err)
	}
	records, err := ReadChallengeRecords(local, "")
	if err != nil {
		return err
	}
	challenge.Log.Printf("%d records to submit", len(records))

	if err := challenge.Agent.Navigate(ctx, challenge.SiteURL); err != nil {
		return err
	}
	if err := ClickSelector(ctx, challenge.Agent, challengeStart, challenge.timeout()); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	for i, record := range records {
		if err := challenge.Submit(ctx, record); err != nil {
			return fmt.Errorf("record #%d: %w", i+1, err)
		}
		challenge.Log.Printf("submitted %v %v", record.FirstName, record.LastName)
	}

	if _, err := challenge.Agent.WaitFor(ctx, challengeResult, challenge.timeout()); err != nil {
		return err
	}
	shot, err := challenge.Agent.Screenshot(ctx, challengeResult)
	if err != nil {
		return err
	}
	out := filepath.Join(challenge.OutputDir, "challenge_result.png")
	if err := os.WriteFile(out, shot, 0644); err != nil {
		return err
	}
	challenge.Log.Printf("result saved to %v", out)
	return nil
}
