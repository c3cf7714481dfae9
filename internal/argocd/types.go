// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argocd

import "encoding/json"

// The types below decode only the fields the tools display. Raw bodies are
// kept alongside for json and yaml output so nothing the server sent is lost.

// Application is an ArgoCD application resource.
type Application struct {
	Metadata ObjectMeta        `json:"metadata"`
	Spec     ApplicationSpec   `json:"spec"`
	Status   ApplicationStatus `json:"status"`
}

// ObjectMeta is the subset of Kubernetes object metadata used here.
type ObjectMeta struct {
	Name              string `json:"name"`
	Namespace         string `json:"namespace,omitempty"`
	CreationTimestamp string `json:"creationTimestamp,omitempty"`
}

// ApplicationSpec describes where an application comes from and goes to.
type ApplicationSpec struct {
	Project     string      `json:"project"`
	Destination Destination `json:"destination"`
	Source      Source      `json:"source"`
}

// Destination is the target cluster and namespace.
type Destination struct {
	Server    string `json:"server,omitempty"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// Source is the application's manifest source.
type Source struct {
	RepoURL        string `json:"repoURL,omitempty"`
	Path           string `json:"path,omitempty"`
	TargetRevision string `json:"targetRevision,omitempty"`
	Chart          string `json:"chart,omitempty"`
}

// ApplicationStatus is the observed state of an application.
type ApplicationStatus struct {
	Health         HealthStatus      `json:"health"`
	Sync           SyncStatus        `json:"sync"`
	OperationState *OperationState   `json:"operationState,omitempty"`
	History        []RevisionHistory `json:"history,omitempty"`
	Resources      []ResourceStatus  `json:"resources,omitempty"`
}

// HealthStatus is a health assessment.
type HealthStatus struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncStatus compares live state with the target revision.
type SyncStatus struct {
	Status   string `json:"status,omitempty"`
	Revision string `json:"revision,omitempty"`
}

// OperationState is the state of the current or last operation.
type OperationState struct {
	Phase      string      `json:"phase,omitempty"`
	Message    string      `json:"message,omitempty"`
	StartedAt  string      `json:"startedAt,omitempty"`
	FinishedAt string      `json:"finishedAt,omitempty"`
	SyncResult *SyncResult `json:"syncResult,omitempty"`
}

// SyncResult holds per-resource results of a sync operation.
type SyncResult struct {
	Revision  string               `json:"revision,omitempty"`
	Resources []ResourceSyncResult `json:"resources,omitempty"`
}

// ResourceSyncResult is the outcome of syncing one resource.
type ResourceSyncResult struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResourceStatus is the sync state of one managed resource.
type ResourceStatus struct {
	Group     string        `json:"group,omitempty"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	Namespace string        `json:"namespace,omitempty"`
	Status    string        `json:"status,omitempty"`
	Health    *HealthStatus `json:"health,omitempty"`
}

// RevisionHistory is one deployment recorded on the application.
type RevisionHistory struct {
	ID              int64       `json:"id"`
	Revision        string      `json:"revision,omitempty"`
	DeployedAt      string      `json:"deployedAt,omitempty"`
	DeployStartedAt string      `json:"deployStartedAt,omitempty"`
	Source          Source      `json:"source"`
	InitiatedBy     InitiatedBy `json:"initiatedBy"`
}

// InitiatedBy identifies who started an operation.
type InitiatedBy struct {
	Username  string `json:"username,omitempty"`
	Automated bool   `json:"automated,omitempty"`
}

// RevisionMetadata is commit information for a revision.
type RevisionMetadata struct {
	Author  string `json:"author,omitempty"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResourceTree is the application's live resource graph.
type ResourceTree struct {
	Nodes []ResourceNode `json:"nodes"`
}

// ResourceNode is one live resource.
type ResourceNode struct {
	Group     string        `json:"group,omitempty"`
	Version   string        `json:"version,omitempty"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	Namespace string        `json:"namespace,omitempty"`
	Health    *HealthStatus `json:"health,omitempty"`
}

// Cluster is a registered destination cluster.
type Cluster struct {
	Name            string          `json:"name"`
	Server          string          `json:"server"`
	ServerVersion   string          `json:"serverVersion,omitempty"`
	ConnectionState ConnectionState `json:"connectionState"`
	Info            struct {
		ServerVersion   string          `json:"serverVersion,omitempty"`
		ConnectionState ConnectionState `json:"connectionState"`
	} `json:"info"`
}

// Version returns the server version from either location ArgoCD reports it.
func (c Cluster) Version() string {
	if c.ServerVersion != "" {
		return c.ServerVersion
	}
	return c.Info.ServerVersion
}

// Connection returns the connection state from either location.
func (c Cluster) Connection() ConnectionState {
	if c.ConnectionState.Status != "" {
		return c.ConnectionState
	}
	return c.Info.ConnectionState
}

// Repository is a registered source repository.
type Repository struct {
	Repo            string          `json:"repo"`
	Type            string          `json:"type,omitempty"`
	Project         string          `json:"project,omitempty"`
	Insecure        bool            `json:"insecure,omitempty"`
	ConnectionState ConnectionState `json:"connectionState"`
}

// RepoType returns the repository type, git when unset.
func (r Repository) RepoType() string {
	if r.Type == "" {
		return "git"
	}
	return r.Type
}

// ConnectionState reports connectivity to a cluster or repository.
type ConnectionState struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// SyncRequest is the body of POST /applications/{name}/sync.
type SyncRequest struct {
	Revision  string         `json:"revision,omitempty"`
	DryRun    bool           `json:"dryRun"`
	Prune     bool           `json:"prune"`
	Force     bool           `json:"force,omitempty"`
	Resources []SyncResource `json:"resources,omitempty"`
}

// SyncResource selects one resource for a partial sync.
type SyncResource struct {
	Group   string `json:"group"`
	Version string `json:"version"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
}

// rawList decodes a {"items": [...]} body keeping each item's raw bytes.
type rawList struct {
	Items []json.RawMessage `json:"items"`
}

// or returns v, or def when v is empty.
func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
