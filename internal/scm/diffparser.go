// package scm adapts source control concerns for the service layer: parsing
// uploaded diffs into per-file entries and looking up changesets.
package scm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/service"
)

// PreCreation marks the source revision of a file that does not exist in the
// repository yet.
const PreCreation = "PRE-CREATION"

var ErrEmptyDiff = errors.New("the diff file is empty")

// DiffParser turns raw unified diff text into a diff set with one entry per
// changed file. It understands plain unified diffs as well as the svn
// ("Index:") and git ("diff --git") framing around them.
type DiffParser struct{}

var (
	_ service.DiffIngester      = (*DiffParser)(nil)
	_ service.ChangesetProvider = (*NullChangesetProvider)(nil)
)

func NewDiffParser() *DiffParser {
	return &DiffParser{}
}

// Ingest implements service.DiffIngester. When a parent diff is supplied, the
// main diff is taken to apply on top of it, so the repository-side revision of
// each file is the one recorded in the parent diff.
func (p *DiffParser) Ingest(_ context.Context, diff, parentDiff []byte, _ *domain.Repository) (*domain.DiffSet, []domain.FileDiff, error) {
	files, err := parseFiles(diff)
	if err != nil {
		return nil, nil, err
	}

	if len(files) == 0 {
		return nil, nil, ErrEmptyDiff
	}

	if len(parentDiff) > 0 {
		parentFiles, err := parseFiles(parentDiff)
		if err != nil {
			return nil, nil, fmt.Errorf("parent diff: %w", err)
		}

		bySource := make(map[string]string, len(parentFiles))
		for _, pf := range parentFiles {
			bySource[pf.DestFile] = pf.SourceRevision
		}

		for i := range files {
			if rev, ok := bySource[files[i].SourceFile]; ok {
				files[i].SourceRevision = rev
			}
		}
	}

	return &domain.DiffSet{Name: "diff"}, files, nil
}

// parseFiles splits the diff into per-file sections. A new section starts at
// a "--- " line immediately followed by a "+++ " line; everything up to the
// next section boundary belongs to the current file, including any framing
// lines ("Index:", "diff --git") directly above it.
func parseFiles(diff []byte) ([]domain.FileDiff, error) {
	lines := strings.Split(string(diff), "\n")

	var (
		files   []domain.FileDiff
		section []string
		framing []string
		current *domain.FileDiff
	)

	flush := func() {
		if current == nil {
			return
		}

		current.Diff = []byte(strings.Join(section, "\n"))
		files = append(files, *current)
		current = nil
		section = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if isFraming(line) {
			flush()
			framing = append(framing, line)

			continue
		}

		if strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
			flush()

			source, sourceRev := parseFileLine(lines[i])
			dest, destDetail := parseFileLine(lines[i+1])

			if source == "/dev/null" {
				source = dest
				sourceRev = PreCreation
			}
			if dest == "/dev/null" {
				dest = source
			}

			if source == "" || dest == "" {
				return nil, fmt.Errorf("unable to parse diff header at line %d", i+1)
			}

			current = &domain.FileDiff{
				SourceFile:     source,
				DestFile:       dest,
				SourceRevision: sourceRev,
				DestDetail:     destDetail,
			}

			section = append(framing, lines[i], lines[i+1])
			framing = nil
			i++

			continue
		}

		framing = nil

		if current != nil {
			section = append(section, line)
		}
	}

	flush()

	return files, nil
}

func isFraming(line string) bool {
	return strings.HasPrefix(line, "Index: ") ||
		strings.HasPrefix(line, "diff ") ||
		strings.HasPrefix(line, "======")
}

// parseFileLine extracts the file name and revision detail from a "--- " or
// "+++ " header. The detail follows a tab when present; svn wraps revisions in
// "(revision N)" which is unwrapped, and "(working copy)" means no recorded
// revision. Git's a/ and b/ prefixes are stripped.
func parseFileLine(line string) (string, string) {
	rest := line[len("--- "):]

	var detail string

	if idx := strings.IndexByte(rest, '\t'); idx >= 0 {
		detail = strings.TrimSpace(rest[idx+1:])
		rest = rest[:idx]
	}

	file := strings.TrimSpace(rest)

	switch {
	case strings.HasPrefix(file, "a/"), strings.HasPrefix(file, "b/"):
		file = file[2:]
	}

	if strings.HasPrefix(detail, "(revision ") && strings.HasSuffix(detail, ")") {
		detail = strings.TrimSuffix(strings.TrimPrefix(detail, "(revision "), ")")
	} else if detail == "(working copy)" {
		detail = ""
	}

	return file, detail
}

// NullChangesetProvider is used when no changeset-capable SCM is configured
// for the site. Every lookup reports the change number as unknown.
type NullChangesetProvider struct{}

func NewNullChangesetProvider() *NullChangesetProvider {
	return &NullChangesetProvider{}
}

func (p *NullChangesetProvider) GetChangeset(_ context.Context, repo *domain.Repository, changeNum int64) (*service.Changeset, error) {
	return nil, fmt.Errorf("changeset %d on repository %d: %w", changeNum, repo.ID, apperrors.ErrNotFound)
}
