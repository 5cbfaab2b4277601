package shapedtext

import (
	"testing"

	ot "github.com/go-text/typesetting/font/opentype"
)

// TestShapingFeatures tests the conversion of feature settings into the
// shaper's tag form, including the disable values used for "liga off"
// and "kern off".
func TestShapingFeatures(t *testing.T) {
	args := &ShapingArgs{
		FontFeatures:    []Feature{{Tag: "frac", Value: 1}},
		IgnoreLigatures: true,
		DisableKerning:  true,
	}
	got := shapingFeatures(args.features())
	if len(got) != 3 {
		t.Fatalf("shapingFeatures() produced %d settings, want 3: %v", len(got), got)
	}
	wantTags := []ot.Tag{ot.MustNewTag("frac"), ot.MustNewTag("liga"), ot.MustNewTag("kern")}
	wantValues := []uint32{1, 0, 0}
	for i := range wantTags {
		if got[i].Tag != wantTags[i] || got[i].Value != wantValues[i] {
			t.Errorf("feature %d = {%v %d}, want {%v %d}",
				i, got[i].Tag, got[i].Value, wantTags[i], wantValues[i])
		}
	}
}

// TestShapingFeaturesMalformedTag tests that tags with the wrong length
// are dropped instead of panicking.
func TestShapingFeaturesMalformedTag(t *testing.T) {
	got := shapingFeatures([]Feature{
		{Tag: "lig", Value: 1},
		{Tag: "dlig2", Value: 1},
		{Tag: "smcp", Value: 1},
	})
	if len(got) != 1 {
		t.Fatalf("shapingFeatures() kept %d settings, want 1: %v", len(got), got)
	}
	if got[0].Tag != ot.MustNewTag("smcp") {
		t.Errorf("kept tag = %v, want smcp", got[0].Tag)
	}
}

func TestShapingFeaturesEmpty(t *testing.T) {
	if got := shapingFeatures(nil); got != nil {
		t.Errorf("shapingFeatures(nil) = %v, want nil", got)
	}
}
