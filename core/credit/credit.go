// Package credit reads borrower credit files from CSV exports and derives a
// summary of them.
package credit

import (
	"encoding/json"
	"fmt"
)

type HomeOwnership uint8

const (
	HomeOwnershipUnknown HomeOwnership = iota
	Own
	Mortgage
	Rent
)

func ParseHomeOwnership(s string) (HomeOwnership, error) {
	switch s {
	case "OWN":
		return Own, nil
	case "MORTGAGE":
		return Mortgage, nil
	case "RENT":
		return Rent, nil
	}
	return HomeOwnershipUnknown, fmt.Errorf("invalid homeownership %q", s)
}

func (h HomeOwnership) String() string {
	switch h {
	case Own:
		return "OWN"
	case Mortgage:
		return "MORTGAGE"
	case Rent:
		return "RENT"
	}
	return "UNKNOWN"
}

func (h HomeOwnership) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

type IncomeVerification uint8

const (
	IncomeEmpty IncomeVerification = iota
	Verified
	SourceVerified
	NotVerified
)

// ParseIncomeVerification never fails: unrecognised values map to IncomeEmpty.
func ParseIncomeVerification(s string) IncomeVerification {
	switch s {
	case "Verified":
		return Verified
	case "Source Verified":
		return SourceVerified
	case "Not Verified":
		return NotVerified
	}
	return IncomeEmpty
}

func (v IncomeVerification) String() string {
	switch v {
	case Verified:
		return "Verified"
	case SourceVerified:
		return "Source Verified"
	case NotVerified:
		return "Not Verified"
	}
	return ""
}

func (v IncomeVerification) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

// File is one borrower's credit file. Pointer fields are optional columns
// that may be empty or "NA" in the export.
type File struct {
	BorrowerID            int32              `json:"borrower_id"`
	EmpTitle              *string            `json:"emp_title,omitempty"`
	EmpLength             *int32             `json:"emp_length,omitempty"`
	State                 string             `json:"state"`
	HomeOwnership         HomeOwnership      `json:"homeownership"`
	AnnualIncome          int32              `json:"annual_income"`
	VerifiedIncome        IncomeVerification `json:"verified_income"`
	DebtToIncome          *float32           `json:"debt_to_income,omitempty"`
	Delinq2Y              int32              `json:"delinq_2y"`
	MonthsSinceLastDelinq *int32             `json:"months_since_last_delinq,omitempty"`
	EarliestCreditLine    int32              `json:"earliest_credit_line"`
	InquiriesLast12M      int32              `json:"inquiries_last_12m"`
	TotalCreditLines      *int32             `json:"total_credit_lines,omitempty"`
	OpenCreditLines       int32              `json:"open_credit_lines"`
	TotalCreditLimit      int32              `json:"total_credit_limit"`
	TotalCreditUtilized   int32              `json:"total_credit_utilized"`
	NumCollectionsLast12M int32              `json:"num_collections_last_12m"`
	AccountNeverDelinqPct float32            `json:"account_never_delinq_percent"`
	TaxLiens              int32              `json:"tax_liens"`
	PublicRecordBankrupt  int32              `json:"public_record_bankrupt"`
}

// Utilization is the share of the credit limit in use, or 0 without a limit.
func (f File) Utilization() float64 {
	if f.TotalCreditLimit <= 0 {
		return 0
	}
	return float64(f.TotalCreditUtilized) / float64(f.TotalCreditLimit)
}

// SampleSize is how many rows a Summary keeps verbatim.
const SampleSize = 20

// Summary describes one ingested export.
type Summary struct {
	Path            string                `json:"path,omitempty"`
	Rows            int                   `json:"rows"`
	Skipped         int                   `json:"skipped"`
	AvgAnnualIncome float64               `json:"avg_annual_income"`
	AvgUtilization  float64               `json:"avg_utilization"`
	ByHomeOwnership map[HomeOwnership]int `json:"-"`
	Sample          []File                `json:"sample"`
}

type summarizer struct {
	s           Summary
	incomeSum   float64
	utilization float64
}

func newSummarizer(path string) *summarizer {
	return &summarizer{s: Summary{Path: path, ByHomeOwnership: map[HomeOwnership]int{}}}
}

func (z *summarizer) add(f File) {
	z.s.Rows++
	z.incomeSum += float64(f.AnnualIncome)
	z.utilization += f.Utilization()
	z.s.ByHomeOwnership[f.HomeOwnership]++
	if len(z.s.Sample) < SampleSize {
		z.s.Sample = append(z.s.Sample, f)
	}
}

func (z *summarizer) skip() { z.s.Skipped++ }

func (z *summarizer) summary() Summary {
	if z.s.Rows > 0 {
		z.s.AvgAnnualIncome = z.incomeSum / float64(z.s.Rows)
		z.s.AvgUtilization = z.utilization / float64(z.s.Rows)
	}
	return z.s
}
