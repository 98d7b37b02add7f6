package profile

import (
	"fmt"
	"runtime"
	"strings"
)

// ColumnType is the single type assigned to a column after inference.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

// Severity ranks how urgent an issue is.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// IssueKind identifies a class of data-quality problem.
type IssueKind string

const (
	IssueMissing              IssueKind = "missing"
	IssueMixedTypes           IssueKind = "mixed_types"
	IssueOutlier              IssueKind = "outlier"
	IssueInconsistentCategory IssueKind = "inconsistent_category"
	IssueDuplicateRows        IssueKind = "duplicate_rows"
	// Reserved for validators that are not wired yet.
	IssueInvalidDate     IssueKind = "invalid_date"
	IssueValidationError IssueKind = "validation_error"
)

// Sensitivity selects the IQR fence multiplier used for outlier detection.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// ParseSensitivity accepts low|medium|high in any case. Empty means medium.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SensitivityLow, nil
	case "", "medium", "med":
		return SensitivityMedium, nil
	case "high":
		return SensitivityHigh, nil
	default:
		return "", fmt.Errorf("invalid sensitivity %q (use low|medium|high)", s)
	}
}

// Settings controls a profiling run. It is passed by value and never mutated.
type Settings struct {
	OutlierSensitivity Sensitivity
	// TypeThreshold is the fraction of defined cells a classifier must
	// strictly exceed for the column to take that type.
	TypeThreshold float64
	// MixedTypeThreshold is the violator fraction above which a
	// number/date column reports a mixed_types issue.
	MixedTypeThreshold float64
	// Parallelism bounds concurrent column profiling. 0 uses GOMAXPROCS,
	// 1 profiles columns sequentially.
	Parallelism int
}

// DefaultSettings returns the thresholds the profiler was calibrated with.
func DefaultSettings() Settings {
	return Settings{
		OutlierSensitivity: SensitivityMedium,
		TypeThreshold:      0.8,
		MixedTypeThreshold: 0.05,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.OutlierSensitivity == "" {
		s.OutlierSensitivity = d.OutlierSensitivity
	}
	if s.TypeThreshold <= 0 {
		s.TypeThreshold = d.TypeThreshold
	}
	if s.MixedTypeThreshold <= 0 {
		s.MixedTypeThreshold = d.MixedTypeThreshold
	}
	if s.Parallelism <= 0 {
		s.Parallelism = runtime.GOMAXPROCS(0)
	}
	return s
}

// Issue is a single finding attached to a column or to the whole dataset.
type Issue struct {
	Kind            IssueKind `json:"kind" yaml:"kind"`
	Description     string    `json:"description" yaml:"description"`
	Severity        Severity  `json:"severity" yaml:"severity"`
	AffectedCount   int       `json:"affected_count" yaml:"affected_count"`
	Examples        []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
	IsAnomaly       bool      `json:"is_anomaly,omitempty" yaml:"is_anomaly,omitempty"`
	IsLowConfidence bool      `json:"is_low_confidence,omitempty" yaml:"is_low_confidence,omitempty"`
}

// CategoryCount is a value/frequency pair.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// NumericStats summarizes a numeric column.
type NumericStats struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// ColumnProfile is the per-column result of a profiling run.
type ColumnProfile struct {
	Name          string          `json:"name" yaml:"name"`
	InferredType  ColumnType      `json:"inferred_type" yaml:"inferred_type"`
	MissingCount  int             `json:"missing_count" yaml:"missing_count"`
	UniqueCount   int             `json:"unique_count" yaml:"unique_count"`
	Issues        []Issue         `json:"issues" yaml:"issues"`
	TopCategories []CategoryCount `json:"top_categories,omitempty" yaml:"top_categories,omitempty"`
	NumericStats  *NumericStats   `json:"numeric_stats,omitempty" yaml:"numeric_stats,omitempty"`
}

// DatasetProfile aggregates column profiles with dataset-wide totals.
type DatasetProfile struct {
	RowCount          int             `json:"row_count" yaml:"row_count"`
	ColumnCount       int             `json:"column_count" yaml:"column_count"`
	TotalMissingCells int             `json:"total_missing_cells" yaml:"total_missing_cells"`
	DuplicateRowCount int             `json:"duplicate_row_count" yaml:"duplicate_row_count"`
	Columns           []ColumnProfile `json:"columns" yaml:"columns"`
	Issues            []Issue         `json:"issues,omitempty" yaml:"issues,omitempty"`
	// MismatchedRows lists row indices whose key set differs from the schema.
	MismatchedRows []int `json:"mismatched_rows,omitempty" yaml:"mismatched_rows,omitempty"`
}

// Column returns the profile for the named column.
func (p *DatasetProfile) Column(name string) (ColumnProfile, bool) {
	if p == nil {
		return ColumnProfile{}, false
	}
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// IssueCount returns the number of column-level and dataset-level issues.
func (p *DatasetProfile) IssueCount() int {
	if p == nil {
		return 0
	}
	n := len(p.Issues)
	for _, c := range p.Columns {
		n += len(c.Issues)
	}
	return n
}
