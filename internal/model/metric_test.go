package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMetricOf_NonFinite(t *testing.T) {
	if MetricOf(math.NaN()).Valid {
		t.Error("NaN must not be a present metric")
	}
	if MetricOf(math.Inf(1)).Valid {
		t.Error("+Inf must not be a present metric")
	}
	if MetricOf(math.Inf(-1)).Valid {
		t.Error("-Inf must not be a present metric")
	}
	if m := MetricOf(0); !m.Valid || m.Value != 0 {
		t.Error("zero is a legitimate present value")
	}
}

func TestRatio_ZeroDenominator(t *testing.T) {
	if Ratio(5, 0).Valid {
		t.Error("zero denominator must yield a missing metric, not Inf")
	}
	if m := Ratio(5, 2); !m.Valid || m.Value != 2.5 {
		t.Errorf("Ratio(5,2) = %+v, want 2.5", m)
	}
	if Percent(3, 0).Valid {
		t.Error("Percent with zero denominator must be missing")
	}
	if m := Percent(3, 60); !m.Valid || m.Value != 5 {
		t.Errorf("Percent(3,60) = %+v, want 5", m)
	}
}

func TestWeightedSum_MissingTermPoisons(t *testing.T) {
	full := WeightedSum(
		Term(0.6, MetricOf(50)),
		Term(0.4, MetricOf(100)),
	)
	if !full.Valid || full.Value != 70 {
		t.Errorf("full sum = %+v, want 70", full)
	}

	partial := WeightedSum(
		Term(0.6, MetricOf(50)),
		Term(0.4, MissingMetric()),
	)
	if partial.Valid {
		t.Error("a sum with a missing term must be missing, never partial")
	}
}

func TestMetric_ScaleAndClamp(t *testing.T) {
	if m := MetricOf(40).Scale(2.5); !m.Valid || m.Value != 100 {
		t.Errorf("Scale = %+v, want 100", m)
	}
	if MissingMetric().Scale(2).Valid {
		t.Error("scaling a missing metric must stay missing")
	}
	if m := MetricOf(150).Clamp(0, 100); m.Value != 100 {
		t.Errorf("Clamp high = %v, want 100", m.Value)
	}
	if m := MetricOf(-3).Clamp(0, 100); m.Value != 0 {
		t.Errorf("Clamp low = %v, want 0", m.Value)
	}
	if MissingMetric().Clamp(0, 100).Valid {
		t.Error("clamping a missing metric must stay missing")
	}
}

func TestMetric_JSONNullNotZero(t *testing.T) {
	type payload struct {
		Score Metric `json:"score"`
	}

	out, err := json.Marshal(payload{Score: MissingMetric()})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"score":null}` {
		t.Errorf("missing metric serialized as %s, want null", out)
	}

	out, err = json.Marshal(payload{Score: MetricOf(56.456)})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"score":56.46}` {
		t.Errorf("present metric serialized as %s, want 56.46", out)
	}

	var in payload
	if err := json.Unmarshal([]byte(`{"score":null}`), &in); err != nil {
		t.Fatal(err)
	}
	if in.Score.Valid {
		t.Error("null must unmarshal as missing")
	}
	if err := json.Unmarshal([]byte(`{"score":12.5}`), &in); err != nil {
		t.Fatal(err)
	}
	if !in.Score.Valid || in.Score.Value != 12.5 {
		t.Errorf("score = %+v, want 12.5", in.Score)
	}
}

func TestCount_UnknownDistinctFromZero(t *testing.T) {
	if CountOf(-1).Valid {
		t.Error("negative counts are unknown, not present")
	}
	if c := CountOf(0); !c.Valid || c.Value != 0 {
		t.Error("zero is a legitimate known count")
	}
	if UnknownCount().Metric().Valid {
		t.Error("an unknown count must convert to a missing metric")
	}
	if m := CountOf(42).Metric(); !m.Valid || m.Value != 42 {
		t.Errorf("count metric = %+v, want 42", m)
	}

	out, err := json.Marshal(struct {
		Views Count `json:"views"`
	}{Views: UnknownCount()})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"views":null}` {
		t.Errorf("unknown count serialized as %s, want null", out)
	}
}
