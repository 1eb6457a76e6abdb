package credit

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `borrower_id,emp_title,emp_length,state,homeownership,annual_income,verified_income,debt_to_income,delinq_2y,months_since_last_delinq,earliest_credit_line,inquiries_last_12m,total_credit_lines,open_credit_lines,total_credit_limit,total_credit_utilized,num_collections_last_12m,account_never_delinq_percent,tax_liens,public_record_bankrupt
1,global config engineer,3,NJ,MORTGAGE,90000,Verified,18.01,0,38,2001,6,28,10,70795,38767,0,92.9,0,0
2,warehouse office clerk,10,HI,RENT,40000,Not Verified,5.04,0,NA,1996,1,30,14,28800,4321,0,100,0,1
3,NA,,WI,RENT,40000,Source Verified,21.15,0,28,2006,4,31,10,24193,16000,0,93.5,0,0
4,boat,1,CA,CASTLE,1,Verified,1,0,1,2001,1,1,1,1,1,0,1,0,0
5,nurse,x,NY,OWN,50000,Verified,1,0,1,2001,1,1,1,1,1,0,1,0,0
`

func TestCSVLoader_Read(t *testing.T) {
	var seen []int32
	l := CSVLoader{OnRow: func(_ int, f File) { seen = append(seen, f.BorrowerID) }}

	s, err := l.Read(t.Context(), strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.Skipped, "unknown homeownership and bad emp_length")
	assert.Equal(t, []int32{1, 2, 3}, seen)
	assert.InDelta(t, 56666.67, s.AvgAnnualIncome, 0.01)
	assert.Equal(t, 1, s.ByHomeOwnership[Mortgage])
	assert.Equal(t, 2, s.ByHomeOwnership[Rent])
	require.Len(t, s.Sample, 3)

	first := s.Sample[0]
	require.NotNil(t, first.EmpTitle)
	assert.Equal(t, "global config engineer", *first.EmpTitle)
	assert.Equal(t, Verified, first.VerifiedIncome)
	require.NotNil(t, first.DebtToIncome)
	assert.InDelta(t, 18.01, *first.DebtToIncome, 0.001)

	second := s.Sample[1]
	assert.Nil(t, second.MonthsSinceLastDelinq)
	assert.Equal(t, NotVerified, second.VerifiedIncome)

	third := s.Sample[2]
	assert.Nil(t, third.EmpTitle)
	assert.Nil(t, third.EmpLength)
	assert.Equal(t, SourceVerified, third.VerifiedIncome)
}

func TestCSVLoader_ColumnOrder(t *testing.T) {
	in := "state,annual_income,homeownership,borrower_id\nTX,1000,OWN,7\n"
	s, err := CSVLoader{}.Read(t.Context(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, s.Sample, 1)
	assert.Equal(t, int32(7), s.Sample[0].BorrowerID)
	assert.Equal(t, "TX", s.Sample[0].State)
	assert.Equal(t, Own, s.Sample[0].HomeOwnership)
}

func TestCSVLoader_MissingColumn(t *testing.T) {
	_, err := CSVLoader{}.Read(t.Context(), strings.NewReader("borrower_id,state\n1,TX\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestCSVLoader_SampleCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("borrower_id,state,homeownership,annual_income\n")
	for i := range 50 {
		b.WriteString(strings.Join([]string{strconv.Itoa(i), "TX", "RENT", "100"}, ",") + "\n")
	}
	s, err := CSVLoader{}.Read(t.Context(), strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 50, s.Rows)
	assert.Len(t, s.Sample, SampleSize)
}

func TestCSVLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credit.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	s, err := CSVLoader{}.Load(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path)
	assert.Equal(t, 3, s.Rows)

	_, err = CSVLoader{}.Load(t.Context(), "")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = CSVLoader{}.Load(t.Context(), filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVLoader_Cancelled(t *testing.T) {
	var b strings.Builder
	b.WriteString("borrower_id,state,homeownership,annual_income\n")
	for i := range 1000 {
		b.WriteString(strconv.Itoa(i) + ",TX,RENT,100\n")
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := CSVLoader{}.Read(ctx, strings.NewReader(b.String()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseEnums(t *testing.T) {
	h, err := ParseHomeOwnership("MORTGAGE")
	require.NoError(t, err)
	assert.Equal(t, "MORTGAGE", h.String())

	_, err = ParseHomeOwnership("castle")
	require.Error(t, err)

	assert.Equal(t, IncomeEmpty, ParseIncomeVerification(""))
	assert.Equal(t, SourceVerified, ParseIncomeVerification("Source Verified"))
}
