package ecs

import (
	"wirecall/internal/enum"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// TaskDefinitionStatus is the lifecycle state of a task definition revision.
type TaskDefinitionStatus int

const (
	TaskDefinitionStatusNotSet TaskDefinitionStatus = iota
	TaskDefinitionStatusActive
	TaskDefinitionStatusInactive
)

var taskDefinitionStatuses = enum.Register("ecs.TaskDefinitionStatus", enum.NewMapper(
	enum.Entry[TaskDefinitionStatus]{Value: TaskDefinitionStatusActive, Name: "ACTIVE"},
	enum.Entry[TaskDefinitionStatus]{Value: TaskDefinitionStatusInactive, Name: "INACTIVE"},
))

// TaskDefinitionStatusForName maps a wire name; unknown names map to NotSet.
func TaskDefinitionStatusForName(name string) TaskDefinitionStatus {
	return taskDefinitionStatuses.Value(name)
}

func (v TaskDefinitionStatus) String() string               { return taskDefinitionStatuses.Name(v) }
func (v TaskDefinitionStatus) IsKnown() bool                { return taskDefinitionStatuses.Known(v) }
func (v TaskDefinitionStatus) MarshalText() ([]byte, error) { return taskDefinitionStatuses.MarshalText(v) }
func (v *TaskDefinitionStatus) UnmarshalText(text []byte) error {
	return taskDefinitionStatuses.UnmarshalText(text, v)
}

// VolumeFrom mounts the volumes of another container.
type VolumeFrom struct {
	SourceContainer opt.Value[string] `json:"sourceContainer,omitzero"`
	ReadOnly        opt.Value[bool]   `json:"readOnly,omitzero"`
}

// MountPoint mounts a task volume into a container.
type MountPoint struct {
	SourceVolume  opt.Value[string] `json:"sourceVolume,omitzero"`
	ContainerPath opt.Value[string] `json:"containerPath,omitzero"`
	ReadOnly      opt.Value[bool]   `json:"readOnly,omitzero"`
}

type PortMapping struct {
	ContainerPort opt.Value[int64]  `json:"containerPort,omitzero"`
	HostPort      opt.Value[int64]  `json:"hostPort,omitzero"`
	Protocol      opt.Value[string] `json:"protocol,omitzero"`
}

type KeyValuePair struct {
	Name  opt.Value[string] `json:"name,omitzero"`
	Value opt.Value[string] `json:"value,omitzero"`
}

type ContainerDefinition struct {
	Name              opt.Value[string] `json:"name,omitzero"`
	Image             opt.Value[string] `json:"image,omitzero"`
	CPU               opt.Value[int64]  `json:"cpu,omitzero"`
	Memory            opt.Value[int64]  `json:"memory,omitzero"`
	MemoryReservation opt.Value[int64]  `json:"memoryReservation,omitzero"`
	Essential         opt.Value[bool]   `json:"essential,omitzero"`
	EntryPoint        []string          `json:"entryPoint,omitempty"`
	Command           []string          `json:"command,omitempty"`
	Environment       []KeyValuePair    `json:"environment,omitempty"`
	PortMappings      []PortMapping     `json:"portMappings,omitempty"`
	MountPoints       []MountPoint      `json:"mountPoints,omitempty"`
	VolumesFrom       []VolumeFrom      `json:"volumesFrom,omitempty"`
	Links             []string          `json:"links,omitempty"`
}

type HostVolumeProperties struct {
	SourcePath opt.Value[string] `json:"sourcePath,omitzero"`
}

type Volume struct {
	Name opt.Value[string]               `json:"name,omitzero"`
	Host opt.Value[HostVolumeProperties] `json:"host,omitzero"`
}

type Tag struct {
	Key   opt.Value[string] `json:"key,omitzero"`
	Value opt.Value[string] `json:"value,omitzero"`
}

type TaskDefinition struct {
	TaskDefinitionArn       opt.Value[string]               `json:"taskDefinitionArn,omitzero"`
	Family                  opt.Value[string]               `json:"family,omitzero"`
	Revision                opt.Value[int64]                `json:"revision,omitzero"`
	TaskRoleArn             opt.Value[string]               `json:"taskRoleArn,omitzero"`
	ExecutionRoleArn        opt.Value[string]               `json:"executionRoleArn,omitzero"`
	NetworkMode             opt.Value[string]               `json:"networkMode,omitzero"`
	ContainerDefinitions    []ContainerDefinition           `json:"containerDefinitions,omitempty"`
	Volumes                 []Volume                        `json:"volumes,omitempty"`
	Status                  opt.Value[TaskDefinitionStatus] `json:"status,omitzero"`
	RequiresCompatibilities []string                        `json:"requiresCompatibilities,omitempty"`
	CPU                     opt.Value[string]               `json:"cpu,omitzero"`
	Memory                  opt.Value[string]               `json:"memory,omitzero"`
	RegisteredAt            opt.Value[protocol.EpochTime]   `json:"registeredAt,omitzero"`
	DeregisteredAt          opt.Value[protocol.EpochTime]   `json:"deregisteredAt,omitzero"`
	RegisteredBy            opt.Value[string]               `json:"registeredBy,omitzero"`
}

type DescribeTaskDefinitionInput struct {
	TaskDefinition opt.Value[string] `json:"taskDefinition,omitzero"`
	Include        []string          `json:"include,omitempty"` // "TAGS"
}

type DescribeTaskDefinitionOutput struct {
	TaskDefinition opt.Value[TaskDefinition] `json:"taskDefinition,omitzero"`
	Tags           []Tag                     `json:"tags,omitempty"`
}
