package omr

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/scorelift/scorelift/pkg/errors"
)

// fragmentPatterns are tried in order when locating engine output. oemer
// writes <image>.musicxml; older builds wrote plain .xml.
var fragmentPatterns = []string{"*.musicxml", "*.xml"}

// FragmentIn locates the single fragment the engine wrote into one page
// directory.
func FragmentIn(dir string) (string, error) {
	for _, pattern := range fragmentPatterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}
	return "", errors.New(errors.ErrCodeEngineFailed, "engine produced no fragment in %s", dir)
}

// FindFragments collects every per-page fragment under a work directory,
// sorted by path so page_02 precedes page_10. Layout: <dir>/page_NN/*.musicxml.
func FindFragments(dir string) ([]string, error) {
	var all []string
	for _, pattern := range fragmentPatterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "page_*", pattern))
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	sort.Strings(all)
	return all, nil
}
