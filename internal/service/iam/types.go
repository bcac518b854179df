package iam

import (
	"time"

	"wirecall/internal/enum"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// ReportStateType is the generation state of a credential report.
type ReportStateType int

const (
	ReportStateTypeNotSet ReportStateType = iota
	ReportStateTypeStarted
	ReportStateTypeInprogress
	ReportStateTypeComplete
)

var reportStateTypes = enum.Register("iam.ReportStateType", enum.NewMapper(
	enum.Entry[ReportStateType]{Value: ReportStateTypeStarted, Name: "STARTED"},
	enum.Entry[ReportStateType]{Value: ReportStateTypeInprogress, Name: "INPROGRESS"},
	enum.Entry[ReportStateType]{Value: ReportStateTypeComplete, Name: "COMPLETE"},
))

// ReportStateTypeForName maps a wire name; unknown names map to ReportStateTypeNotSet.
func ReportStateTypeForName(name string) ReportStateType { return reportStateTypes.Value(name) }

func (v ReportStateType) String() string                   { return reportStateTypes.Name(v) }
func (v ReportStateType) IsKnown() bool                    { return reportStateTypes.Known(v) }
func (v ReportStateType) MarshalText() ([]byte, error)     { return reportStateTypes.MarshalText(v) }
func (v *ReportStateType) UnmarshalText(text []byte) error { return reportStateTypes.UnmarshalText(text, v) }

// ReportFormatType is the content type of a credential report.
type ReportFormatType int

const (
	ReportFormatTypeNotSet ReportFormatType = iota
	ReportFormatTypeTextCSV
)

var reportFormatTypes = enum.Register("iam.ReportFormatType", enum.NewMapper(
	enum.Entry[ReportFormatType]{Value: ReportFormatTypeTextCSV, Name: "text/csv"},
))

// ReportFormatTypeForName maps a wire name; unknown names map to ReportFormatTypeNotSet.
func ReportFormatTypeForName(name string) ReportFormatType { return reportFormatTypes.Value(name) }

func (v ReportFormatType) String() string                   { return reportFormatTypes.Name(v) }
func (v ReportFormatType) IsKnown() bool                    { return reportFormatTypes.Known(v) }
func (v ReportFormatType) MarshalText() ([]byte, error)     { return reportFormatTypes.MarshalText(v) }
func (v *ReportFormatType) UnmarshalText(text []byte) error { return reportFormatTypes.UnmarshalText(text, v) }

type GenerateCredentialReportInput struct{}

type GenerateCredentialReportOutput struct {
	State       opt.Value[ReportStateType] `xml:"State" json:",omitzero"`
	Description opt.Value[string]          `xml:"Description" json:",omitzero"`
}

type GetCredentialReportInput struct{}

type GetCredentialReportOutput struct {
	Content       opt.Value[protocol.Blob]    `xml:"Content" json:",omitzero"`
	ReportFormat  opt.Value[ReportFormatType] `xml:"ReportFormat" json:",omitzero"`
	GeneratedTime opt.Value[time.Time]        `xml:"GeneratedTime" json:",omitzero"`
}
