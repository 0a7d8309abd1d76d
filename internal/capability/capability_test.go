// internal/capability/capability_test.go
package capability

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	got, err := ParseList("acceptInsecureCerts=true|System.Boolean, pageLoadStrategy=eager,maxTabs=3|int,ratio=1.5|System.Double,quota=9000000000|System.Int64")
	require.NoError(t, err)

	want := []Setting{
		{Name: "acceptInsecureCerts", Value: true},
		{Name: "pageLoadStrategy", Value: "eager"},
		{Name: "maxTabs", Value: 3},
		{Name: "ratio", Value: 1.5},
		{Name: "quota", Value: int64(9000000000)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseList mismatch (-want +got):\n%s", diff)
	}
}

func TestParseList_SingleItem(t *testing.T) {
	got, err := ParseList("download.prompt_for_download=false|bool")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Setting{Name: "download.prompt_for_download", Value: false}, got[0])
}

func TestParseList_Empty(t *testing.T) {
	for _, in := range []string{"", "  ", ",,"} {
		got, err := ParseList(in)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestParseList_Errors(t *testing.T) {
	tests := map[string]string{
		"missing equals":  "acceptInsecureCerts",
		"empty name":      "=true|bool",
		"unknown type":    "a=1|System.Decimal",
		"bad bool":        "a=yes|System.Boolean",
		"bad int":         "ok=1|int,a=one|int",
		"int32 overflow":  "a=9000000000|System.Int32",
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseList(in)
			assert.Error(t, err)
		})
	}
}

func TestParseItem_ErrorNamesItem(t *testing.T) {
	_, err := ParseItem("width=wide|int")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"width=wide|int"`)
}

func TestConvert_Float32(t *testing.T) {
	v, err := Convert("2.5", "System.Single")
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), v)
}

func TestToMap(t *testing.T) {
	m := ToMap([]Setting{{"a", 1}, {"b", "x"}, {"a", 2}})
	assert.Equal(t, map[string]interface{}{"a": 2, "b": "x"}, m)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"/ext/a.crx", "/ext/b.crx"}, SplitList(" /ext/a.crx ,, /ext/b.crx "))
	assert.Nil(t, SplitList(""))
}
