package metrics

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FlowSummary aggregates submission outcomes for one flow.
type FlowSummary struct {
	Flow     string           `json:"flow"`
	Outcomes map[string]int64 `json:"outcomes"`
	Total    int64            `json:"total"`
}

// OperationSummary aggregates GraphQL round-trips for one operation.
type OperationSummary struct {
	Operation   string  `json:"operation"`
	Requests    int64   `json:"requests"`
	Errors      int64   `json:"errors"`
	MeanSeconds float64 `json:"mean_seconds"`
}

// Summary is the JSON view served at /api/stats.
type Summary struct {
	Flows          []FlowSummary      `json:"flows"`
	Operations     []OperationSummary `json:"operations"`
	ActiveVisitors int64              `json:"active_visitors"`
}

// Summarize gathers the todofront metric families from g and aggregates them by flow and operation.
func Summarize(g prometheus.Gatherer) (*Summary, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	flows := make(map[string]*FlowSummary)
	ops := make(map[string]*OperationSummary)
	durations := make(map[string]*dto.Histogram)
	summary := &Summary{}

	opFor := func(name string) *OperationSummary {
		if s, ok := ops[name]; ok {
			return s
		}
		s := &OperationSummary{Operation: name}
		ops[name] = s
		return s
	}

	for _, mf := range families {
		switch mf.GetName() {
		case SubmissionsTotalName:
			for _, m := range mf.GetMetric() {
				flow, outcome := labelValue(m, "flow"), labelValue(m, "outcome")
				s, ok := flows[flow]
				if !ok {
					s = &FlowSummary{Flow: flow, Outcomes: make(map[string]int64)}
					flows[flow] = s
				}
				n := int64(m.GetCounter().GetValue())
				s.Outcomes[outcome] += n
				s.Total += n
			}
		case RequestsTotalName:
			for _, m := range mf.GetMetric() {
				s := opFor(labelValue(m, "operation"))
				n := int64(m.GetCounter().GetValue())
				s.Requests += n
				if status := labelValue(m, "status"); status == "error" || (len(status) == 3 && status[0] != '2') {
					s.Errors += n
				}
			}
		case RequestDurationName:
			for _, m := range mf.GetMetric() {
				durations[labelValue(m, "operation")] = m.GetHistogram()
			}
		case ActiveVisitorsName:
			for _, m := range mf.GetMetric() {
				summary.ActiveVisitors = int64(m.GetGauge().GetValue())
			}
		}
	}

	for op, h := range durations {
		if h.GetSampleCount() > 0 {
			opFor(op).MeanSeconds = h.GetSampleSum() / float64(h.GetSampleCount())
		}
	}

	for _, s := range flows {
		summary.Flows = append(summary.Flows, *s)
	}
	sort.Slice(summary.Flows, func(i, j int) bool { return summary.Flows[i].Flow < summary.Flows[j].Flow })
	for _, s := range ops {
		summary.Operations = append(summary.Operations, *s)
	}
	sort.Slice(summary.Operations, func(i, j int) bool {
		return summary.Operations[i].Operation < summary.Operations[j].Operation
	})
	return summary, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
