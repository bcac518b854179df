package elasticache

import (
	"time"

	"wirecall/internal/opt"
)

// RecurringCharge is a periodic charge on a reservation.
type RecurringCharge struct {
	RecurringChargeAmount    opt.Value[float64] `xml:"RecurringChargeAmount" json:",omitzero"`
	RecurringChargeFrequency opt.Value[string]  `xml:"RecurringChargeFrequency" json:",omitzero"`
}

// ReservedCacheNode is a purchased cache node reservation.
type ReservedCacheNode struct {
	ReservedCacheNodeID          opt.Value[string]    `xml:"ReservedCacheNodeId" json:",omitzero"`
	ReservedCacheNodesOfferingID opt.Value[string]    `xml:"ReservedCacheNodesOfferingId" json:",omitzero"`
	CacheNodeType                opt.Value[string]    `xml:"CacheNodeType" json:",omitzero"`
	StartTime                    opt.Value[time.Time] `xml:"StartTime" json:",omitzero"`
	Duration                     opt.Value[int64]     `xml:"Duration" json:",omitzero"` // Seconds
	FixedPrice                   opt.Value[float64]   `xml:"FixedPrice" json:",omitzero"`
	UsagePrice                   opt.Value[float64]   `xml:"UsagePrice" json:",omitzero"`
	CacheNodeCount               opt.Value[int64]     `xml:"CacheNodeCount" json:",omitzero"`
	ProductDescription           opt.Value[string]    `xml:"ProductDescription" json:",omitzero"`
	OfferingType                 opt.Value[string]    `xml:"OfferingType" json:",omitzero"`
	State                        opt.Value[string]    `xml:"State" json:",omitzero"`
	RecurringCharges             []RecurringCharge    `xml:"RecurringCharges>RecurringCharge" json:",omitempty"`
}

type DescribeReservedCacheNodesInput struct {
	ReservedCacheNodeID          opt.Value[string] `query:"ReservedCacheNodeId"`
	ReservedCacheNodesOfferingID opt.Value[string] `query:"ReservedCacheNodesOfferingId"`
	CacheNodeType                opt.Value[string] `query:"CacheNodeType"`
	Duration                     opt.Value[string] `query:"Duration"` // "1" / "3" years, or seconds
	ProductDescription           opt.Value[string] `query:"ProductDescription"`
	OfferingType                 opt.Value[string] `query:"OfferingType"`
	MaxRecords                   opt.Value[int64]  `query:"MaxRecords"`
	Marker                       opt.Value[string] `query:"Marker"`
}

type DescribeReservedCacheNodesOutput struct {
	Marker             opt.Value[string]   `xml:"Marker" json:",omitzero"`
	ReservedCacheNodes []ReservedCacheNode `xml:"ReservedCacheNodes>ReservedCacheNode" json:",omitempty"`
}
