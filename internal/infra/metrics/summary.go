package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Sample is one counter or gauge value flattened for display.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Summary gathers every pickup_* counter and gauge from g, sorted by name
// and labels. Histograms are reported by their sample count.
func Summary(g prometheus.Gatherer) ([]Sample, error) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "pickup_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			s := Sample{Name: mf.GetName(), Labels: labelString(m.GetLabel())}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				s.Value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				s.Value = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

func labelString(lps []*dto.LabelPair) string {
	parts := make([]string, 0, len(lps))
	for _, lp := range lps {
		parts = append(parts, lp.GetName()+"="+lp.GetValue())
	}
	return strings.Join(parts, ",")
}
