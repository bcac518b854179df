package cognitosync

import (
	"wirecall/internal/enum"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// Platform is a push notification platform.
type Platform int

const (
	PlatformNotSet Platform = iota
	PlatformAPNS
	PlatformAPNSSandbox
	PlatformGCM
	PlatformADM
)

var platforms = enum.Register("cognitosync.Platform", enum.NewMapper(
	enum.Entry[Platform]{Value: PlatformAPNS, Name: "APNS"},
	enum.Entry[Platform]{Value: PlatformAPNSSandbox, Name: "APNS_SANDBOX"},
	enum.Entry[Platform]{Value: PlatformGCM, Name: "GCM"},
	enum.Entry[Platform]{Value: PlatformADM, Name: "ADM"},
))

// PlatformForName maps a wire name; unknown names map to PlatformNotSet.
func PlatformForName(name string) Platform { return platforms.Value(name) }

// NameForPlatform returns the wire name, or "" for PlatformNotSet.
func NameForPlatform(p Platform) string { return platforms.Name(p) }

func (p Platform) String() string                   { return platforms.Name(p) }
func (p Platform) IsKnown() bool                    { return platforms.Known(p) }
func (p Platform) MarshalText() ([]byte, error)     { return platforms.MarshalText(p) }
func (p *Platform) UnmarshalText(text []byte) error { return platforms.UnmarshalText(text, p) }

type RegisterDeviceInput struct {
	IdentityPoolID opt.Value[string]   `location:"uri" locationName:"IdentityPoolId" json:"-"`
	IdentityID     opt.Value[string]   `location:"uri" locationName:"IdentityId" json:"-"`
	Platform       opt.Value[Platform] `json:"Platform,omitzero"`
	Token          opt.Value[string]   `json:"Token,omitzero"`
}

type RegisterDeviceOutput struct {
	DeviceID opt.Value[string] `json:"DeviceId,omitzero"`
}

// Dataset is a named collection of synced records for one identity.
type Dataset struct {
	IdentityID       opt.Value[string]             `json:"IdentityId,omitzero"`
	DatasetName      opt.Value[string]             `json:"DatasetName,omitzero"`
	CreationDate     opt.Value[protocol.EpochTime] `json:"CreationDate,omitzero"`
	LastModifiedDate opt.Value[protocol.EpochTime] `json:"LastModifiedDate,omitzero"`
	LastModifiedBy   opt.Value[string]             `json:"LastModifiedBy,omitzero"`
	DataStorage      opt.Value[int64]              `json:"DataStorage,omitzero"`
	NumRecords       opt.Value[int64]              `json:"NumRecords,omitzero"`
}

type ListDatasetsInput struct {
	IdentityPoolID opt.Value[string] `location:"uri" locationName:"IdentityPoolId" json:"-"`
	IdentityID     opt.Value[string] `location:"uri" locationName:"IdentityId" json:"-"`
	NextToken      opt.Value[string] `location:"querystring" locationName:"nextToken" json:"-"`
	MaxResults     opt.Value[int64]  `location:"querystring" locationName:"maxResults" json:"-"`
}

type ListDatasetsOutput struct {
	Datasets  []Dataset         `json:"Datasets,omitempty"`
	Count     opt.Value[int64]  `json:"Count,omitzero"`
	NextToken opt.Value[string] `json:"NextToken,omitzero"`
}
