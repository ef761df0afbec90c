package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTemplates_FieldKinds(t *testing.T) {
	type Inner struct {
		Path string `template:""`
	}
	type S struct {
		Path      string            `template:""`
		Ptr       *string           `template:""`
		NilPtr    *string           `template:""`
		Lines     []string          `template:""`
		Env       map[string]string // maps are always expanded
		Inner     Inner
		InnerPtr  *Inner
		Items     []*Inner
		Skipped   string `template:"-"`
		Untagged  string
		Untouched int
		Counts    map[string]int
	}

	ptr := "${OUT}/target"
	in := S{
		Path:      "${TOP}/device/${TARGET_DEVICE}",
		Ptr:       &ptr,
		Lines:     []string{"Building ${TARGET_PRODUCT}", "plain"},
		Env:       map[string]string{"DEVICE": "${TARGET_DEVICE}"},
		Inner:     Inner{Path: "${TARGET_VARIANT}"},
		InnerPtr:  &Inner{Path: "${JOB_NAME}"},
		Items:     []*Inner{{Path: "${TOP}"}, nil},
		Skipped:   "${TOP}",
		Untagged:  "${TOP}",
		Untouched: 42,
		Counts:    map[string]int{"k": 1},
	}

	variables := map[string]string{
		"TOP":            "/src",
		"OUT":            "/src/out",
		"TARGET_PRODUCT": "a3xelte_lineage",
		"TARGET_DEVICE":  "a3xelte",
		"TARGET_VARIANT": "lineage",
		"JOB_NAME":       "nightly",
	}

	require.NoError(t, ExpandTemplates(&in, variables))

	assert.Equal(t, "/src/device/a3xelte", in.Path)
	require.NotNil(t, in.Ptr)
	assert.Equal(t, "/src/out/target", *in.Ptr)
	assert.Equal(t, "${OUT}/target", ptr, "the original pointee is left alone")
	assert.Nil(t, in.NilPtr)
	assert.Equal(t, []string{"Building a3xelte_lineage", "plain"}, in.Lines)
	assert.Equal(t, map[string]string{"DEVICE": "a3xelte"}, in.Env)
	assert.Equal(t, "lineage", in.Inner.Path)
	assert.Equal(t, "nightly", in.InnerPtr.Path)
	require.Len(t, in.Items, 2)
	assert.Equal(t, "/src", in.Items[0].Path)
	assert.Nil(t, in.Items[1])
	assert.Equal(t, "${TOP}", in.Skipped)
	assert.Equal(t, "${TOP}", in.Untagged)
	assert.Equal(t, 42, in.Untouched)
	assert.Equal(t, map[string]int{"k": 1}, in.Counts)
}

func TestExpandTemplates_TopLevel(t *testing.T) {
	type S struct {
		Path string `template:""`
	}

	var nilIn *S
	require.NoError(t, ExpandTemplates(nilIn, map[string]string{}))

	items := []S{{Path: "${X}"}, {Path: "${Y}"}}
	require.NoError(t, ExpandTemplates(&items, map[string]string{"X": "a", "Y": "b"}))
	assert.Equal(t, []S{{Path: "a"}, {Path: "b"}}, items)

	n := 3
	err := ExpandTemplates(&n, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects *struct or *[]struct")
}

func TestExpandTemplates_MissingVariableNamesField(t *testing.T) {
	type Inner struct {
		Source string `template:""`
	}
	type S struct {
		Overrides Inner
	}
	in := S{Overrides: Inner{Source: "${MISSING}"}}
	err := ExpandTemplates(&in, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Overrides: Source:")
	assert.Contains(t, err.Error(), `variable "MISSING" is not defined`)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		variables  map[string]string
		want       string
		wantErr    bool
		errContain string
	}{
		{
			name:  "no variables",
			value: "plain-text",
			want:  "plain-text",
		},
		{
			name:      "single variable",
			value:     "${JOB_NAME}",
			variables: map[string]string{"JOB_NAME": "nightly"},
			want:      "nightly",
		},
		{
			name:  "package name pattern",
			value: "lineage-${TARGET_DEVICE}-${JOB_DATE_ISO8601}",
			variables: map[string]string{
				"TARGET_DEVICE":    "a3xelte",
				"JOB_DATE_ISO8601": "20261017T103000Z",
			},
			want: "lineage-a3xelte-20261017T103000Z",
		},
		{
			name:      "short form",
			value:     "$TOP/vendor",
			variables: map[string]string{"TOP": "/src"},
			want:      "/src/vendor",
		},
		{
			name:  "default used when undefined",
			value: "${SIGNING_KEY:-testkey}",
			want:  "testkey",
		},
		{
			name:      "default ignored when defined",
			value:     "${SIGNING_KEY:-testkey}",
			variables: map[string]string{"SIGNING_KEY": "releasekey"},
			want:      "releasekey",
		},
		{
			name:  "empty default",
			value: "a${SUFFIX:-}b",
			want:  "ab",
		},
		{
			name:       "undefined variable",
			value:      "${SECRET_KEY}",
			variables:  map[string]string{"OTHER": "value"},
			wantErr:    true,
			errContain: `variable "SECRET_KEY" is not defined`,
		},
		{
			name:       "errors accumulate",
			value:      "${FIRST}${SECOND}",
			wantErr:    true,
			errContain: "SECOND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.value, tt.variables)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandMap(t *testing.T) {
	got, err := ExpandMap(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ExpandMap(map[string]string{"DEVICE": "${TARGET_DEVICE}", "PLAIN": "x"}, map[string]string{"TARGET_DEVICE": "a3xelte"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DEVICE": "a3xelte", "PLAIN": "x"}, got)

	_, err = ExpandMap(map[string]string{"Good": "plain", "Bad": "${NOT_DEFINED}"}, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Bad: variable "NOT_DEFINED" is not defined`)
}
