package securityhub

import (
	"wirecall/internal/enum"
	"wirecall/internal/opt"
)

// ComplianceStatus is the result of a compliance check.
type ComplianceStatus int

const (
	ComplianceStatusNotSet ComplianceStatus = iota
	ComplianceStatusPassed
	ComplianceStatusWarning
	ComplianceStatusFailed
	ComplianceStatusNotAvailable
)

var complianceStatuses = enum.Register("securityhub.ComplianceStatus", enum.NewMapper(
	enum.Entry[ComplianceStatus]{Value: ComplianceStatusPassed, Name: "PASSED"},
	enum.Entry[ComplianceStatus]{Value: ComplianceStatusWarning, Name: "WARNING"},
	enum.Entry[ComplianceStatus]{Value: ComplianceStatusFailed, Name: "FAILED"},
	enum.Entry[ComplianceStatus]{Value: ComplianceStatusNotAvailable, Name: "NOT_AVAILABLE"},
))

// ComplianceStatusForName maps a wire name; unknown names map to NotSet.
func ComplianceStatusForName(name string) ComplianceStatus { return complianceStatuses.Value(name) }

func (v ComplianceStatus) String() string                   { return complianceStatuses.Name(v) }
func (v ComplianceStatus) IsKnown() bool                    { return complianceStatuses.Known(v) }
func (v ComplianceStatus) MarshalText() ([]byte, error)     { return complianceStatuses.MarshalText(v) }
func (v *ComplianceStatus) UnmarshalText(text []byte) error { return complianceStatuses.UnmarshalText(text, v) }

// SeverityLabel is the qualitative severity of a finding.
type SeverityLabel int

const (
	SeverityLabelNotSet SeverityLabel = iota
	SeverityLabelInformational
	SeverityLabelLow
	SeverityLabelMedium
	SeverityLabelHigh
	SeverityLabelCritical
)

var severityLabels = enum.Register("securityhub.SeverityLabel", enum.NewMapper(
	enum.Entry[SeverityLabel]{Value: SeverityLabelInformational, Name: "INFORMATIONAL"},
	enum.Entry[SeverityLabel]{Value: SeverityLabelLow, Name: "LOW"},
	enum.Entry[SeverityLabel]{Value: SeverityLabelMedium, Name: "MEDIUM"},
	enum.Entry[SeverityLabel]{Value: SeverityLabelHigh, Name: "HIGH"},
	enum.Entry[SeverityLabel]{Value: SeverityLabelCritical, Name: "CRITICAL"},
))

// SeverityLabelForName maps a wire name; unknown names map to NotSet.
func SeverityLabelForName(name string) SeverityLabel { return severityLabels.Value(name) }

func (v SeverityLabel) String() string                   { return severityLabels.Name(v) }
func (v SeverityLabel) IsKnown() bool                    { return severityLabels.Known(v) }
func (v SeverityLabel) MarshalText() ([]byte, error)     { return severityLabels.MarshalText(v) }
func (v *SeverityLabel) UnmarshalText(text []byte) error { return severityLabels.UnmarshalText(text, v) }

// StringFilterComparison selects how a StringFilter matches.
type StringFilterComparison int

const (
	StringFilterComparisonNotSet StringFilterComparison = iota
	StringFilterComparisonEquals
	StringFilterComparisonPrefix
	StringFilterComparisonNotEquals
	StringFilterComparisonPrefixNotEquals
)

var stringFilterComparisons = enum.Register("securityhub.StringFilterComparison", enum.NewMapper(
	enum.Entry[StringFilterComparison]{Value: StringFilterComparisonEquals, Name: "EQUALS"},
	enum.Entry[StringFilterComparison]{Value: StringFilterComparisonPrefix, Name: "PREFIX"},
	enum.Entry[StringFilterComparison]{Value: StringFilterComparisonNotEquals, Name: "NOT_EQUALS"},
	enum.Entry[StringFilterComparison]{Value: StringFilterComparisonPrefixNotEquals, Name: "PREFIX_NOT_EQUALS"},
))

func (v StringFilterComparison) String() string               { return stringFilterComparisons.Name(v) }
func (v StringFilterComparison) IsKnown() bool                { return stringFilterComparisons.Known(v) }
func (v StringFilterComparison) MarshalText() ([]byte, error) { return stringFilterComparisons.MarshalText(v) }
func (v *StringFilterComparison) UnmarshalText(text []byte) error {
	return stringFilterComparisons.UnmarshalText(text, v)
}

// StringFilter matches a string attribute of a finding.
type StringFilter struct {
	Value      opt.Value[string]                 `json:"Value,omitzero"`
	Comparison opt.Value[StringFilterComparison] `json:"Comparison,omitzero"`
}

// Equals is shorthand for an EQUALS filter on v.
func Equals(v string) StringFilter {
	return StringFilter{Value: opt.Of(v), Comparison: opt.Of(StringFilterComparisonEquals)}
}

// Filters narrows GetFindings. Filters on different attributes are ANDed; values
// within one attribute are ORed.
type Filters struct {
	ProductArn       []StringFilter `json:"ProductArn,omitempty"`
	AwsAccountID     []StringFilter `json:"AwsAccountId,omitempty"`
	GeneratorID      []StringFilter `json:"GeneratorId,omitempty"`
	SeverityLabel    []StringFilter `json:"SeverityLabel,omitempty"`
	ComplianceStatus []StringFilter `json:"ComplianceStatus,omitempty"`
	RecordState      []StringFilter `json:"RecordState,omitempty"`
	ResourceType     []StringFilter `json:"ResourceType,omitempty"`
}

type SortCriterion struct {
	Field     opt.Value[string] `json:"Field,omitzero"`
	SortOrder opt.Value[string] `json:"SortOrder,omitzero"` // "asc" or "desc"
}

// Compliance carries the compliance check result of a finding.
type Compliance struct {
	Status opt.Value[ComplianceStatus] `json:"Status,omitzero"`
}

type Severity struct {
	Label      opt.Value[SeverityLabel] `json:"Label,omitzero"`
	Normalized opt.Value[int64]         `json:"Normalized,omitzero"`
	Original   opt.Value[string]        `json:"Original,omitzero"`
}

type Resource struct {
	Type      opt.Value[string] `json:"Type,omitzero"`
	ID        opt.Value[string] `json:"Id,omitzero"`
	Partition opt.Value[string] `json:"Partition,omitzero"`
	Region    opt.Value[string] `json:"Region,omitzero"`
}

// Finding is an AWS Security Finding Format record. Timestamps are ISO 8601
// strings on the wire and are kept as sent.
type Finding struct {
	SchemaVersion opt.Value[string]     `json:"SchemaVersion,omitzero"`
	ID            opt.Value[string]     `json:"Id,omitzero"`
	ProductArn    opt.Value[string]     `json:"ProductArn,omitzero"`
	GeneratorID   opt.Value[string]     `json:"GeneratorId,omitzero"`
	AwsAccountID  opt.Value[string]     `json:"AwsAccountId,omitzero"`
	Types         []string              `json:"Types,omitempty"`
	CreatedAt     opt.Value[string]     `json:"CreatedAt,omitzero"`
	UpdatedAt     opt.Value[string]     `json:"UpdatedAt,omitzero"`
	Severity      opt.Value[Severity]   `json:"Severity,omitzero"`
	Title         opt.Value[string]     `json:"Title,omitzero"`
	Description   opt.Value[string]     `json:"Description,omitzero"`
	Resources     []Resource            `json:"Resources,omitempty"`
	Compliance    opt.Value[Compliance] `json:"Compliance,omitzero"`
	RecordState   opt.Value[string]     `json:"RecordState,omitzero"`
}

type GetFindingsInput struct {
	Filters      opt.Value[Filters] `json:"Filters,omitzero"`
	SortCriteria []SortCriterion    `json:"SortCriteria,omitempty"`
	NextToken    opt.Value[string]  `json:"NextToken,omitzero"`
	MaxResults   opt.Value[int64]   `json:"MaxResults,omitzero"`
}

type GetFindingsOutput struct {
	Findings  []Finding         `json:"Findings,omitempty"`
	NextToken opt.Value[string] `json:"NextToken,omitzero"`
}
