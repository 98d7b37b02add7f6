package profile

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxExamples      = 3
	maxTopCategories = 10
	// highMissingRatio promotes a missing issue to High severity.
	highMissingRatio = 0.2
)

// profileColumn runs the per-column pipeline: normalize, infer the type,
// detect issues, then compute statistics or top categories.
func profileColumn(name string, rows []Row, s Settings) ColumnProfile {
	cp := ColumnProfile{Name: name, Issues: []Issue{}}

	defined := make([]any, 0, len(rows))
	for _, r := range rows {
		v := Normalize(r[name])
		if v == nil {
			cp.MissingCount++
			continue
		}
		defined = append(defined, v)
	}

	var numeric, dates, booleans int
	freq := newFrequency()
	for _, v := range defined {
		if IsNumeric(v) {
			numeric++
		}
		if IsDate(v) {
			dates++
		}
		if IsBooleanLiteral(v) {
			booleans++
		}
		freq.add(Stringify(v))
	}
	cp.UniqueCount = len(freq.order)
	cp.InferredType = inferType(len(defined), numeric, dates, booleans, s.TypeThreshold)

	if iss, ok := missingIssue(cp.MissingCount, len(rows)); ok {
		cp.Issues = append(cp.Issues, iss)
	}
	if iss, ok := mixedTypeIssue(cp.InferredType, defined, s.MixedTypeThreshold); ok {
		cp.Issues = append(cp.Issues, iss)
	}

	switch cp.InferredType {
	case TypeNumber:
		nums := coerceAll(defined)
		if iss, ok := outlierIssue(nums, s.OutlierSensitivity); ok {
			cp.Issues = append(cp.Issues, iss)
		}
		cp.NumericStats = ComputeStats(nums)
	case TypeString:
		cp.TopCategories = freq.top(maxTopCategories)
		if iss, ok := caseVariantIssue(freq.order); ok {
			cp.Issues = append(cp.Issues, iss)
		}
		if cp.UniqueCount > 1 && cp.UniqueCount < fuzzyMaxUnique {
			if iss, ok := fuzzyIssue(freq.order); ok {
				cp.Issues = append(cp.Issues, iss)
			}
		}
	}
	return cp
}

func missingIssue(missing, rowCount int) (Issue, bool) {
	if missing == 0 || rowCount == 0 {
		return Issue{}, false
	}
	ratio := float64(missing) / float64(rowCount)
	sev := SeverityMedium
	if ratio > highMissingRatio {
		sev = SeverityHigh
	}
	return Issue{
		Kind:          IssueMissing,
		Description:   fmt.Sprintf("%d missing values (%.1f%% of rows)", missing, ratio*100),
		Severity:      sev,
		AffectedCount: missing,
	}, true
}

func mixedTypeIssue(t ColumnType, defined []any, threshold float64) (Issue, bool) {
	var conforms func(any) bool
	switch t {
	case TypeNumber:
		conforms = IsNumeric
	case TypeDate:
		conforms = IsDate
	default:
		return Issue{}, false
	}
	if len(defined) == 0 {
		return Issue{}, false
	}
	var bad int
	var examples []string
	for _, v := range defined {
		if conforms(v) {
			continue
		}
		bad++
		if len(examples) < maxExamples {
			examples = append(examples, Stringify(v))
		}
	}
	if float64(bad)/float64(len(defined)) <= threshold {
		return Issue{}, false
	}
	return Issue{
		Kind:          IssueMixedTypes,
		Description:   fmt.Sprintf("%d values do not parse as %s", bad, t),
		Severity:      SeverityHigh,
		AffectedCount: bad,
		Examples:      examples,
	}, true
}

func coerceAll(defined []any) []float64 {
	out := make([]float64, 0, len(defined))
	for _, v := range defined {
		if f, ok := coerceNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func outlierIssue(nums []float64, s Sensitivity) (Issue, bool) {
	outs, f, ok := DetectOutliers(nums, s)
	if !ok || len(outs) == 0 {
		return Issue{}, false
	}
	examples := make([]string, 0, maxExamples)
	for _, v := range outs {
		if len(examples) == maxExamples {
			break
		}
		examples = append(examples, formatFloat(v))
	}
	return Issue{
		Kind:            IssueOutlier,
		Description:     fmt.Sprintf("%d values outside [%.4g, %.4g] (%.1f×IQR)", len(outs), f.Lower, f.Upper, f.Multiplier),
		Severity:        outlierSeverity(s),
		AffectedCount:   len(outs),
		Examples:        examples,
		IsAnomaly:       true,
		IsLowConfidence: s == SensitivityHigh,
	}, true
}

// caseVariantIssue groups distinct values by lower(trim(v)); a group with
// more than one spelling is a cluster.
func caseVariantIssue(values []string) (Issue, bool) {
	groups := map[string][]string{}
	var order []string
	for _, v := range values {
		k := foldKey(v)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], v)
	}
	var clusters []string
	for _, k := range order {
		if g := groups[k]; len(g) > 1 {
			clusters = append(clusters, strings.Join(g, "/"))
		}
	}
	if len(clusters) == 0 {
		return Issue{}, false
	}
	return Issue{
		Kind:          IssueInconsistentCategory,
		Description:   fmt.Sprintf("%d categories differ only by case or whitespace", len(clusters)),
		Severity:      SeverityMedium,
		AffectedCount: len(clusters),
		Examples:      head(clusters, maxExamples),
	}, true
}

func fuzzyIssue(values []string) (Issue, bool) {
	seen := map[string]struct{}{}
	keys := make([]string, 0, len(values))
	for _, v := range values {
		k := foldKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	clusters := FuzzyClusters(keys)
	if len(clusters) == 0 {
		return Issue{}, false
	}
	examples := make([]string, 0, maxExamples)
	for _, c := range head(clusters, maxExamples) {
		examples = append(examples, strings.Join(c, "≈"))
	}
	return Issue{
		Kind:            IssueInconsistentCategory,
		Description:     fmt.Sprintf("%d groups of similar spellings may be the same category", len(clusters)),
		Severity:        SeverityLow,
		AffectedCount:   len(clusters),
		Examples:        examples,
		IsLowConfidence: true,
	}, true
}

func foldKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// frequency counts values while remembering first-seen order.
type frequency struct {
	order  []string
	counts map[string]int
}

func newFrequency() *frequency { return &frequency{counts: map[string]int{}} }

func (f *frequency) add(v string) {
	if _, ok := f.counts[v]; !ok {
		f.order = append(f.order, v)
	}
	f.counts[v]++
}

// top returns the n most frequent values; ties keep first-seen order.
func (f *frequency) top(n int) []CategoryCount {
	out := make([]CategoryCount, len(f.order))
	for i, v := range f.order {
		out[i] = CategoryCount{Value: v, Count: f.counts[v]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
