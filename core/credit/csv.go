package credit

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyPath     = errors.New("empty csv path")
)

// Loader ingests a credit-file export.
type Loader interface {
	Load(ctx context.Context, path string) (Summary, error)
}

// OnRow is called for every parsed row.
type OnRow func(row int, f File)

// CSVLoader parses exports by header name, so column order does not matter
// and unknown columns are ignored. Rows that fail to parse are counted as
// skipped rather than failing the whole load.
type CSVLoader struct {
	Comma rune
	OnRow OnRow
}

var requiredColumns = []string{"borrower_id", "state", "homeownership", "annual_income"}

func (l CSVLoader) Load(ctx context.Context, path string) (Summary, error) {
	if path == "" {
		return Summary{}, ErrEmptyPath
	}
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open credit file: %w", err)
	}
	defer f.Close()

	s, err := l.Read(ctx, f)
	s.Path = path
	return s, err
}

// Read parses an export from r.
func (l CSVLoader) Read(ctx context.Context, r io.Reader) (Summary, error) {
	cr := csv.NewReader(r)
	if l.Comma != 0 {
		cr.Comma = l.Comma
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return Summary{}, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	z := newSummarizer("")
	for row := 1; ; row++ {
		if row%256 == 0 {
			if err := ctx.Err(); err != nil {
				return z.summary(), err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				z.skip()
				continue
			}
			return z.summary(), fmt.Errorf("read row %d: %w", row, err)
		}

		f, err := parseRow(record{cols: cols, rec: rec})
		if err != nil {
			z.skip()
			continue
		}
		if l.OnRow != nil {
			l.OnRow(row, f)
		}
		z.add(f)
	}
	return z.summary(), nil
}

type record struct {
	cols map[string]int
	rec  []string
	err  error
}

func (r *record) raw(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func isNA(s string) bool { return s == "" || s == "NA" }

func (r *record) int(name string) int32 {
	s := r.raw(name)
	if isNA(s) {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return int32(v)
}

func (r *record) optInt(name string) *int32 {
	if isNA(r.raw(name)) {
		return nil
	}
	v := r.int(name)
	return &v
}

func (r *record) float(name string) float32 {
	s := r.raw(name)
	if isNA(s) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return float32(v)
}

func (r *record) optFloat(name string) *float32 {
	if isNA(r.raw(name)) {
		return nil
	}
	v := r.float(name)
	return &v
}

func (r *record) optString(name string) *string {
	s := r.raw(name)
	if isNA(s) {
		return nil
	}
	return &s
}

func parseRow(r record) (File, error) {
	ho, err := ParseHomeOwnership(r.raw("homeownership"))
	if err != nil {
		return File{}, err
	}
	f := File{
		BorrowerID:            r.int("borrower_id"),
		EmpTitle:              r.optString("emp_title"),
		EmpLength:             r.optInt("emp_length"),
		State:                 r.raw("state"),
		HomeOwnership:         ho,
		AnnualIncome:          r.int("annual_income"),
		VerifiedIncome:        ParseIncomeVerification(r.raw("verified_income")),
		DebtToIncome:          r.optFloat("debt_to_income"),
		Delinq2Y:              r.int("delinq_2y"),
		MonthsSinceLastDelinq: r.optInt("months_since_last_delinq"),
		EarliestCreditLine:    r.int("earliest_credit_line"),
		InquiriesLast12M:      r.int("inquiries_last_12m"),
		TotalCreditLines:      r.optInt("total_credit_lines"),
		OpenCreditLines:       r.int("open_credit_lines"),
		TotalCreditLimit:      r.int("total_credit_limit"),
		TotalCreditUtilized:   r.int("total_credit_utilized"),
		NumCollectionsLast12M: r.int("num_collections_last_12m"),
		AccountNeverDelinqPct: r.float("account_never_delinq_percent"),
		TaxLiens:              r.int("tax_liens"),
		PublicRecordBankrupt:  r.int("public_record_bankrupt"),
	}
	if r.err != nil {
		return File{}, r.err
	}
	return f, nil
}

var _ Loader = CSVLoader{}
