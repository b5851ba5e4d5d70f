// Package gitref resolves arbitrary GitHub repository references into a
// canonical (owner, name) identity.
package gitref

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidReference indicates the reference could not be resolved to an
// owner/name pair. Check with errors.Is().
var ErrInvalidReference = errors.New("invalid repository reference")

// ErrInvalidTableName indicates a storage identifier containing characters
// outside [A-Za-z0-9_]. Check with errors.Is().
var ErrInvalidTableName = errors.New("invalid table name")

var hostPattern = regexp.MustCompile(`github\.com[/:]([\w.-]+)/([\w.-]+)`)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Repo is a resolved repository identity.
type Repo struct {
	Owner string
	Name  string
}

// Resolve normalizes a repository reference into its owner/name identity.
// Accepted forms, in priority order: anything containing github.com/owner/name
// or github.com:owner/name, https URLs, scp-like git@github.com:owner/name,
// and as a last resort the final two path segments of a parseable URL.
// Surrounding whitespace and a trailing ".git" are stripped first.
func Resolve(reference string) (Repo, error) {
	ref := strings.TrimSpace(reference)
	ref = strings.TrimSuffix(ref, ".git")
	if ref == "" {
		return Repo{}, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	if m := hostPattern.FindStringSubmatch(ref); m != nil {
		return Repo{Owner: m[1], Name: m[2]}, nil
	}

	if owner, name, ok := splitAfter(ref, "github.com/"); ok {
		return Repo{Owner: owner, Name: name}, nil
	}

	if owner, name, ok := splitAfter(ref, "git@github.com:"); ok {
		return Repo{Owner: owner, Name: name}, nil
	}

	// Last resort: final two non-empty path segments of a parsed URL.
	if u, err := url.Parse(ref); err == nil {
		segments := make([]string, 0, 4)
		for _, p := range strings.Split(u.Path, "/") {
			if p != "" {
				segments = append(segments, p)
			}
		}
		if len(segments) >= 2 {
			return Repo{
				Owner: segments[len(segments)-2],
				Name:  segments[len(segments)-1],
			}, nil
		}
	}

	return Repo{}, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
}

// splitAfter extracts owner/name from everything following the marker.
func splitAfter(ref, marker string) (owner, name string, ok bool) {
	_, rest, found := strings.Cut(ref, marker)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Path returns the canonical "owner/name" form.
func (r Repo) Path() string {
	return r.Owner + "/" + r.Name
}

// URL returns the canonical https URL for the repository.
func (r Repo) URL() string {
	return "https://github.com/" + r.Path()
}

// TableName derives the storage identifier used for the repository's chunk
// table: owner_name with "/", "-" and "." replaced by "_". Not reversible;
// two distinct repositories can normalize to the same identifier.
func (r Repo) TableName() string {
	return TableNameFromPath(r.Path())
}

var tableNameReplacer = strings.NewReplacer("/", "_", "-", "_", ".", "_")

// TableNameFromPath derives a storage identifier from an owner/name path.
// It only replaces path separator characters; callers that accept arbitrary
// input must still check the result with ValidTableName.
func TableNameFromPath(path string) string {
	return tableNameReplacer.Replace(path)
}

// ValidTableName reports whether name is safe to interpolate into SurrealQL
// as a table identifier. Table names cannot be parameter-bound, so anything
// outside [A-Za-z0-9_] is rejected.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// DisplayName renders the repository name for humans: hyphens become spaces
// and each word is title-cased.
func (r Repo) DisplayName() string {
	words := strings.Split(strings.ReplaceAll(r.Name, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
