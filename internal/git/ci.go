package git

import (
	"os"
	"strings"
)

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// ciVariables names the environment variables a CI provider exposes.
type ciVariables struct {
	detect     []string
	branch     []string
	commit     string
	repository string
}

var ciProviders = []ciVariables{
	{
		detect:     []string{"GITHUB_REPOSITORY", "GITHUB_SHA"},
		branch:     []string{"GITHUB_HEAD_REF", "GITHUB_REF_NAME"},
		commit:     "GITHUB_SHA",
		repository: "GITHUB_REPOSITORY",
	},
	{
		detect:     []string{"CI_PROJECT_PATH"},
		branch:     []string{"CI_MERGE_REQUEST_SOURCE_BRANCH_NAME", "CI_COMMIT_BRANCH", "CI_COMMIT_REF_NAME"},
		commit:     "CI_COMMIT_SHA",
		repository: "CI_PROJECT_PATH",
	},
	{
		detect:     []string{"BITBUCKET_REPO_FULL_NAME", "BITBUCKET_COMMIT"},
		branch:     []string{"BITBUCKET_BRANCH", "BITBUCKET_TAG"},
		commit:     "BITBUCKET_COMMIT",
		repository: "BITBUCKET_REPO_FULL_NAME",
	},
}

// FillFromCI completes the fields md lacks from the variables of the CI
// provider the process runs in. CI checkouts are often detached, leaving
// the branch unknown to git.
func (m *Metadata) FillFromCI(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.Getenv
	}
	for _, p := range ciProviders {
		if firstSet(lookup, p.detect...) == "" {
			continue
		}
		if m.Branch == "" {
			m.Branch = firstSet(lookup, p.branch...)
		}
		if m.Commit == "" {
			m.Commit = lookup(p.commit)
		}
		if m.Repository == "" || strings.Contains(m.Repository, "://") {
			if name := lookup(p.repository); name != "" {
				m.Repository = name
			}
		}
		return
	}
}

func firstSet(lookup LookupFunc, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(lookup(name)); v != "" {
			return v
		}
	}
	return ""
}
