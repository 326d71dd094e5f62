package models

// Project represents a GitLab project as reported by the gitlabinfo backend.
type Project struct {
	ID            int      `json:"projectId"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Kind          string   `json:"kind"`
	Description   string   `json:"description"`
	Archived      bool     `json:"archived"`
	DefaultBranch *Branch  `json:"defaultBranch,omitempty"`
	Branches      []Branch `json:"branches"`
	Errors        []Error  `json:"errors"`
	CICD          *CICD    `json:"cicd,omitempty"`
}

// Branch is a branch of a project together with the build metadata found on it.
type Branch struct {
	Name                string  `json:"name"`
	LastCommitCreatedAt string  `json:"lastCommitCreatedAt"`
	GitLabConfig        string  `json:"gitLabConfig"`
	GroupID             string  `json:"groupId"`
	ArtifactID          string  `json:"artifactId"`
	Parent              *Parent `json:"parent,omitempty"`
	Errors              []Error `json:"errors"`
}

// Parent references the parent artifact a branch builds against.
type Parent struct {
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`
}

// CICD holds the CI/CD configuration of a project.
type CICD struct {
	ConfigurationFile string            `json:"configurationFile"`
	Variables         map[string]string `json:"variables"`
}

// Error is a problem detected on a project or one of its branches.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DefaultBranchName returns the default branch name, or "" when unknown.
func (p *Project) DefaultBranchName() string {
	if p.DefaultBranch == nil {
		return ""
	}
	return p.DefaultBranch.Name
}

// ParentArtifactID returns the parent artifact id of the default branch.
func (p *Project) ParentArtifactID() string {
	if p.DefaultBranch == nil {
		return ""
	}
	return p.DefaultBranch.ParentArtifactID()
}

// ParentVersion returns the parent version of the default branch.
func (p *Project) ParentVersion() string {
	if p.DefaultBranch == nil {
		return ""
	}
	return p.DefaultBranch.ParentVersion()
}

// ConfigurationFile returns the CI configuration file name, or "".
func (p *Project) ConfigurationFile() string {
	if p.CICD == nil {
		return ""
	}
	return p.CICD.ConfigurationFile
}

// Variables returns the CI variables; the map is nil when none are known.
func (p *Project) Variables() map[string]string {
	if p.CICD == nil {
		return nil
	}
	return p.CICD.Variables
}

// ParentArtifactID returns the parent artifact id, or "" without a parent.
func (b *Branch) ParentArtifactID() string {
	if b.Parent == nil {
		return ""
	}
	return b.Parent.ArtifactID
}

// ParentVersion returns the parent version, or "" without a parent.
func (b *Branch) ParentVersion() string {
	if b.Parent == nil {
		return ""
	}
	return b.Parent.Version
}
