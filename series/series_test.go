package series

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSeries_Stats(t *testing.T) {
	s, err := New("s", []float64{0, 1, 2, 3}, []float64{2, 4, 4, 6})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.Mean(); got != 4 {
		t.Fatalf("mean = %v, want 4", got)
	}
	if got := s.Std(); !almostEqual(got, math.Sqrt(2)) {
		t.Fatalf("std = %v, want sqrt(2)", got)
	}
	standardized := s.Standardize()
	if !almostEqual(mean(standardized), 0) || !almostEqual(std(standardized, 0), 1) {
		t.Fatalf("standardized = %v", standardized)
	}
	flat := &Series{Values: []float64{3, 3, 3}}
	for _, v := range flat.Standardize() {
		if v != 0 {
			t.Fatalf("flat series standardized to %v", v)
		}
	}
	if _, err := New("bad", []float64{1}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestCrossCorrelation(t *testing.T) {
	got := CrossCorrelation([]float64{1, 2, 3}, []float64{1, 0, 0})
	want := []float64{1.0 / 3, 2.0 / 3, 1}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("ccor = %v, want %v", got, want)
		}
	}
}

func TestKernelDistance(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	a := Generate(rnd, "a", 0.5, 0.1, 0.01)
	b := Generate(rnd, "b", 0.5, 0.1, 0.01)
	far := Generate(rnd, "far", 0.5, 0.1, 5)

	if d := KernelDistance(a, a, 1); !almostEqual(d, 0) {
		t.Fatalf("self distance = %v", d)
	}
	ab, ba := KernelDistance(a, b, 1), KernelDistance(b, a, 1)
	if !almostEqual(ab, ba) {
		t.Fatalf("asymmetric: %v vs %v", ab, ba)
	}
	if af := KernelDistance(a, far, 1); !(ab < af) {
		t.Fatalf("similar series %v should be closer than dissimilar %v", ab, af)
	}
	short := &Series{Values: []float64{1, 2}}
	if d := KernelDistance(a, short, 1); !math.IsInf(d, 1) {
		t.Fatalf("length mismatch distance = %v", d)
	}
}

func TestNewDistance(t *testing.T) {
	a := &Series{Values: []float64{0, 0}}
	b := &Series{Values: []float64{3, 4}}
	euclidean, err := NewDistance(DistanceEuclidean, 0)
	if err != nil {
		t.Fatalf("new distance: %v", err)
	}
	if d := euclidean(a, b); d != 5 {
		t.Fatalf("euclidean = %v, want 5", d)
	}
	if _, err := NewDistance("cosine", 1); err == nil {
		t.Fatalf("expected error for unknown distance")
	}
	kernel, err := NewDistance("", 0)
	if err != nil || kernel == nil {
		t.Fatalf("default distance: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	s := Generate(rand.New(rand.NewPCG(1, 1)), "ts_1.series", 0.5, 0.1, 0)
	if s.Len() != 100 {
		t.Fatalf("len = %d, want 100", s.Len())
	}
	if s.Times[0] != 0 || !almostEqual(s.Times[99], 0.99) {
		t.Fatalf("times = %v..%v", s.Times[0], s.Times[99])
	}
	// noiseless bump peaks at the mean
	if !almostEqual(s.Values[50], normPDF(0.5, 0.5, 0.1)) {
		t.Fatalf("peak = %v", s.Values[50])
	}
}

func TestCodec(t *testing.T) {
	original := Generate(rand.New(rand.NewPCG(5, 6)), "ts_7.series", 0.5, 0.1, 0.01)
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Name != original.Name || decoded.Len() != original.Len() {
		t.Fatalf("decoded %s/%d, want %s/%d", decoded.Name, decoded.Len(), original.Name, original.Len())
	}
	for i := range original.Values {
		if decoded.Values[i] != original.Values[i] || decoded.Times[i] != original.Times[i] {
			t.Fatalf("point %d mismatch", i)
		}
	}
	if _, err := Unmarshal(nil); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if _, err := Marshal(&Series{Times: []float64{1}}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestUnmarshal_Truncated(t *testing.T) {
	s, err := New("ts_3.series", []float64{0, 0.01, 0.02}, []float64{1.5, -2, 0.25})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for n := 1; n < len(data); n++ {
		if _, err := Unmarshal(data[:n]); !errors.Is(err, ErrInvalid) {
			t.Fatalf("prefix %d/%d: err = %v, want ErrInvalid", n, len(data), err)
		}
	}
	if _, err := Unmarshal(data); err != nil {
		t.Fatalf("pooled reader unusable after failures: %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	s := Generate(rand.New(rand.NewPCG(8, 9)), "ts_1.series", 0.5, 0.1, 0.01)
	first, err := Fingerprint(s)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	again, _ := Fingerprint(s)
	if first != again {
		t.Fatalf("fingerprint not stable")
	}
	s.Values[10] += 1e-6
	changed, _ := Fingerprint(s)
	if changed == first {
		t.Fatalf("fingerprint ignores value change")
	}
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	if ids, err := loader.List(ctx); err != nil || len(ids) != 0 {
		t.Fatalf("list empty = %v, %v", ids, err)
	}
	rnd := rand.New(rand.NewPCG(1, 2))
	for _, name := range []string{"ts_2", "ts_1.series"} {
		if _, err := loader.Save(ctx, Generate(rnd, name, 0.5, 0.1, 0.01)); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	ids, err := loader.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "ts_1.series" || ids[1] != "ts_2.series" {
		t.Fatalf("ids = %v", ids)
	}

	fresh, _ := NewLoader(loader.BaseURL(), WithCacheSize(0))
	s, err := fresh.Load(ctx, "ts_2.series")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 100 || s.Name != "ts_2" {
		t.Fatalf("loaded %s with %d points", s.Name, s.Len())
	}
	if _, err := fresh.Load(ctx, "missing.series"); err == nil {
		t.Fatalf("expected error for missing item")
	}
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		description string
		filter      *Filter
		id          string
		expect      bool
	}{
		{description: "nil filter", filter: nil, id: "ts_1.series", expect: true},
		{description: "glob include", filter: &Filter{Include: []string{"ts_1*"}}, id: "ts_12.series", expect: true},
		{description: "glob include miss", filter: &Filter{Include: []string{"ts_1*"}}, id: "ts_2.series", expect: false},
		{description: "substring exclude", filter: &Filter{Exclude: []string{"_9"}}, id: "ts_90.series", expect: false},
		{description: "comment skipped", filter: &Filter{Exclude: []string{"# ts", " "}}, id: "ts_1.series", expect: true},
		{description: "exclude wins", filter: &Filter{Include: []string{"ts_"}, Exclude: []string{"ts_3.series"}}, id: "ts_3.series", expect: false},
	}
	for _, testCase := range testCases {
		if got := testCase.filter.Match(testCase.id); got != testCase.expect {
			t.Errorf("%s: Match(%s) = %v, want %v", testCase.description, testCase.id, got, testCase.expect)
		}
	}
}

func TestLoader_ListFilter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	rnd := rand.New(rand.NewPCG(1, 2))
	for _, name := range []string{"ts_1", "ts_2", "ts_10"} {
		if _, err := writer.Save(ctx, Generate(rnd, name, 0.5, 0.1, 0.01)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	reader, _ := NewLoader(dir, WithFilter(&Filter{Include: []string{"ts_1*"}}))
	ids, err := reader.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "ts_1.series" || ids[1] != "ts_10.series" {
		t.Fatalf("ids = %v", ids)
	}
}
