package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/authsvc"
)

func TestCounterDefsAreUniqueAndPrefixed(t *testing.T) {
	names := map[string]bool{}
	ids := map[authsvc.MetricID]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "authsvc_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("counter %q does not follow authsvc_*_total", def.Name)
		}
		if names[def.Name] {
			t.Fatalf("duplicate counter name %q", def.Name)
		}
		if ids[def.ID] {
			t.Fatalf("duplicate counter id %d", def.ID)
		}
		names[def.Name] = true
		ids[def.ID] = true
	}
	for _, def := range HistogramDefs {
		if ids[def.ID] {
			t.Fatalf("histogram id %d also exported as a counter", def.ID)
		}
	}
}

func TestBucketHelpers(t *testing.T) {
	got := NormalizeBuckets([]uint64{1, 2, 3})
	if got != [8]uint64{1, 2, 3} {
		t.Fatalf("NormalizeBuckets = %v", got)
	}
	cum := CumulativeBuckets([8]uint64{1, 1, 1, 1, 1, 1, 1, 1})
	if cum[7] != 8 || cum[0] != 1 {
		t.Fatalf("CumulativeBuckets = %v", cum)
	}
	if len(HistogramBounds) != len(HistogramBoundSuffix) {
		t.Fatal("bound tables out of sync")
	}
}
