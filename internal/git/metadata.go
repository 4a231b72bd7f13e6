package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
)

// Metadata describes the repository a scanned folder belongs to.
type Metadata struct {
	Branch     string `json:"branch,omitempty" msgpack:"branch"`
	Commit     string `json:"commit,omitempty" msgpack:"commit"`
	Repository string `json:"repository,omitempty" msgpack:"repository"`
	RemoteURL  string `json:"remote_url,omitempty" msgpack:"remote_url"`
	Subfolder  string `json:"subfolder,omitempty" msgpack:"subfolder"`
	RootFolder string `json:"-" msgpack:"-"`
}

// CollectMetadata collects branch, commit and repository name for the git
// repository containing sourceFolder. The returned Metadata is never nil;
// on error it only carries the root folder.
func CollectMetadata(sourceFolder string) (*Metadata, error) {
	if sourceFolder == "" {
		return &Metadata{}, fmt.Errorf("source folder is not set")
	}

	if absSource, err := filepath.Abs(sourceFolder); err == nil {
		sourceFolder = absSource
	}

	md := &Metadata{
		RootFolder: filepath.Clean(sourceFolder),
	}

	repoRootFolder, err := findGitRepositoryPath(sourceFolder)
	if err != nil {
		return md, err
	}
	md.RootFolder = filepath.Clean(repoRootFolder)

	repo, err := git.PlainOpen(repoRootFolder)
	if err != nil {
		return md, fmt.Errorf("failed to open repository: %w", err)
	}

	if rel, err := filepath.Rel(repoRootFolder, sourceFolder); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.Commit = head.Hash().String()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.RemoteURL = cfg.URLs[0]
			md.Repository = repositoryName(cfg.URLs[0])
		}
	}

	return md, nil
}

// repositoryName returns owner/name for a remote URL, or the URL without
// its .git suffix when it is not a known VCS URL.
func repositoryName(remote string) string {
	info, err := vcsurl.Parse(remote)
	if err != nil || info.FullName == "" {
		return strings.TrimSuffix(remote, ".git")
	}
	return info.FullName
}

// Namespace returns a cache namespace derived from the repository name,
// or an empty string when the repository is unknown.
func (m *Metadata) Namespace() string {
	if m == nil || m.Repository == "" || strings.Contains(m.Repository, "://") {
		return ""
	}
	name := strings.ToLower(m.Repository)
	name = strings.NewReplacer("/", "_", ":", "_", "@", "_").Replace(name)
	return strings.Trim(name, "._-")
}
