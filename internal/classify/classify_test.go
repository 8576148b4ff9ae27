package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.optionset.dev/optionset/internal/classify"
)

func TestDetectIndicator(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		lines []string
		want  string
		ok    bool
	}{
		"leading slash-slash": {
			lines: []string{"// @tag option setting", "value = 1"},
			want:  "//",
			ok:    true,
		},
		"leading hash after whitespace": {
			lines: []string{"   # @tag option setting"},
			want:  "#",
			ok:    true,
		},
		"inline only, second pass": {
			lines: []string{"application pimpleFoam // @simulation transient"},
			want:  "//",
			ok:    true,
		},
		"no indicator anywhere": {
			lines: []string{"just plain text", "more text"},
			want:  "",
			ok:    false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := classify.DetectIndicator(tc.lines)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLine(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		line        string
		comInd      string
		nestedLevel int
		wantMatch   bool
		wantCommented bool
		wantAnnCount  int
	}{
		"uncommented inline annotation": {
			line:         "application pimpleFoam // @simulation transient",
			comInd:       "//",
			wantMatch:    true,
			wantCommented: false,
			wantAnnCount:  1,
		},
		"commented line": {
			line:          "//application simpleFoam // @simulation steady",
			comInd:        "//",
			wantMatch:     true,
			wantCommented: true,
			wantAnnCount:  1,
		},
		"no annotation": {
			line:      "plain text with no macros",
			comInd:    "//",
			wantMatch: false,
		},
		"nested level requires prefix": {
			line:        "value = 1 # @x y",
			comInd:      "#",
			nestedLevel: 1,
			wantMatch:   false,
		},
		"flush-left annotation has no non-comment prefix": {
			line:      "// @simulation transient",
			comInd:    "//",
			wantMatch: false,
		},
		"flush-left commented annotation has no non-comment prefix": {
			line:      "////// @simulation transient",
			comInd:    "//",
			wantMatch: false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := classify.Line(tc.line, tc.comInd, tc.nestedLevel)
			assert.Equal(t, tc.wantMatch, got.Matched)
			if tc.wantMatch {
				assert.Equal(t, tc.wantCommented, got.IsCommented)
				assert.Len(t, got.Annotations, tc.wantAnnCount)
			}
		})
	}
}
