package sts

import (
	"time"

	"wirecall/internal/opt"
)

// Credentials are temporary security credentials issued by STS.
type Credentials struct {
	AccessKeyID     opt.Value[string]    `xml:"AccessKeyId" json:",omitzero"`
	SecretAccessKey opt.Value[string]    `xml:"SecretAccessKey" json:",omitzero"`
	SessionToken    opt.Value[string]    `xml:"SessionToken" json:",omitzero"`
	Expiration      opt.Value[time.Time] `xml:"Expiration" json:",omitzero"`
}

// AssumedRoleUser identifies the role session a set of credentials belongs to.
type AssumedRoleUser struct {
	AssumedRoleID opt.Value[string] `xml:"AssumedRoleId" json:",omitzero"`
	Arn           opt.Value[string] `xml:"Arn" json:",omitzero"`
}

// FederatedUser identifies a federated user session.
type FederatedUser struct {
	FederatedUserID opt.Value[string] `xml:"FederatedUserId" json:",omitzero"`
	Arn             opt.Value[string] `xml:"Arn" json:",omitzero"`
}

// PolicyDescriptor names a managed policy to use as a session policy.
type PolicyDescriptor struct {
	Arn opt.Value[string] `query:"arn"`
}

// Tag is a session tag.
type Tag struct {
	Key   opt.Value[string] `query:"Key"`
	Value opt.Value[string] `query:"Value"`
}

type AssumeRoleInput struct {
	RoleArn           opt.Value[string]  `query:"RoleArn"`
	RoleSessionName   opt.Value[string]  `query:"RoleSessionName"`
	PolicyArns        []PolicyDescriptor `query:"PolicyArns"`
	Policy            opt.Value[string]  `query:"Policy"`
	DurationSeconds   opt.Value[int64]   `query:"DurationSeconds"`
	Tags              []Tag              `query:"Tags"`
	TransitiveTagKeys []string           `query:"TransitiveTagKeys"`
	ExternalID        opt.Value[string]  `query:"ExternalId"`
	SerialNumber      opt.Value[string]  `query:"SerialNumber"`
	TokenCode         opt.Value[string]  `query:"TokenCode"`
}

type AssumeRoleOutput struct {
	Credentials      opt.Value[Credentials]     `xml:"Credentials" json:",omitzero"`
	AssumedRoleUser  opt.Value[AssumedRoleUser] `xml:"AssumedRoleUser" json:",omitzero"`
	PackedPolicySize opt.Value[int64]           `xml:"PackedPolicySize" json:",omitzero"`
}

type AssumeRoleWithSAMLInput struct {
	RoleArn         opt.Value[string]  `query:"RoleArn"`
	PrincipalArn    opt.Value[string]  `query:"PrincipalArn"`
	SAMLAssertion   opt.Value[string]  `query:"SAMLAssertion"`
	PolicyArns      []PolicyDescriptor `query:"PolicyArns"`
	Policy          opt.Value[string]  `query:"Policy"`
	DurationSeconds opt.Value[int64]   `query:"DurationSeconds"`
}

type AssumeRoleWithSAMLOutput struct {
	Credentials      opt.Value[Credentials]     `xml:"Credentials" json:",omitzero"`
	AssumedRoleUser  opt.Value[AssumedRoleUser] `xml:"AssumedRoleUser" json:",omitzero"`
	PackedPolicySize opt.Value[int64]           `xml:"PackedPolicySize" json:",omitzero"`
	Subject          opt.Value[string]          `xml:"Subject" json:",omitzero"`
	SubjectType      opt.Value[string]          `xml:"SubjectType" json:",omitzero"`
	Issuer           opt.Value[string]          `xml:"Issuer" json:",omitzero"`
	Audience         opt.Value[string]          `xml:"Audience" json:",omitzero"`
	NameQualifier    opt.Value[string]          `xml:"NameQualifier" json:",omitzero"`
}

type AssumeRoleWithWebIdentityInput struct {
	RoleArn          opt.Value[string]  `query:"RoleArn"`
	RoleSessionName  opt.Value[string]  `query:"RoleSessionName"`
	WebIdentityToken opt.Value[string]  `query:"WebIdentityToken"`
	ProviderID       opt.Value[string]  `query:"ProviderId"`
	PolicyArns       []PolicyDescriptor `query:"PolicyArns"`
	Policy           opt.Value[string]  `query:"Policy"`
	DurationSeconds  opt.Value[int64]   `query:"DurationSeconds"`
}

type AssumeRoleWithWebIdentityOutput struct {
	Credentials                 opt.Value[Credentials]     `xml:"Credentials" json:",omitzero"`
	SubjectFromWebIdentityToken opt.Value[string]          `xml:"SubjectFromWebIdentityToken" json:",omitzero"`
	AssumedRoleUser             opt.Value[AssumedRoleUser] `xml:"AssumedRoleUser" json:",omitzero"`
	PackedPolicySize            opt.Value[int64]           `xml:"PackedPolicySize" json:",omitzero"`
	Provider                    opt.Value[string]          `xml:"Provider" json:",omitzero"`
	Audience                    opt.Value[string]          `xml:"Audience" json:",omitzero"`
}

type DecodeAuthorizationMessageInput struct {
	EncodedMessage opt.Value[string] `query:"EncodedMessage"`
}

type DecodeAuthorizationMessageOutput struct {
	DecodedMessage opt.Value[string] `xml:"DecodedMessage" json:",omitzero"`
}

type GetFederationTokenInput struct {
	Name            opt.Value[string]  `query:"Name"`
	Policy          opt.Value[string]  `query:"Policy"`
	PolicyArns      []PolicyDescriptor `query:"PolicyArns"`
	DurationSeconds opt.Value[int64]   `query:"DurationSeconds"`
	Tags            []Tag              `query:"Tags"`
}

type GetFederationTokenOutput struct {
	Credentials      opt.Value[Credentials]   `xml:"Credentials" json:",omitzero"`
	FederatedUser    opt.Value[FederatedUser] `xml:"FederatedUser" json:",omitzero"`
	PackedPolicySize opt.Value[int64]         `xml:"PackedPolicySize" json:",omitzero"`
}

type GetSessionTokenInput struct {
	DurationSeconds opt.Value[int64]  `query:"DurationSeconds"`
	SerialNumber    opt.Value[string] `query:"SerialNumber"`
	TokenCode       opt.Value[string] `query:"TokenCode"`
}

type GetSessionTokenOutput struct {
	Credentials opt.Value[Credentials] `xml:"Credentials" json:",omitzero"`
}

type GetCallerIdentityInput struct{}

type GetCallerIdentityOutput struct {
	UserID  opt.Value[string] `xml:"UserId" json:",omitzero"`
	Account opt.Value[string] `xml:"Account" json:",omitzero"`
	Arn     opt.Value[string] `xml:"Arn" json:",omitzero"`
}
