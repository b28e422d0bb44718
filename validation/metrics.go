// Copyright 2025 the libevm authors.
//
// The libevm additions to go-ethereum are free software: you can redistribute
// them and/or modify them under the terms of the GNU Lesser General Public License
// as published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The libevm additions are distributed in the hope that they will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see
// <http://www.gnu.org/licenses/>.

package validation

import "github.com/ava-labs/libevm/metrics"

const metricsPrefix = "validation/"

var violationMetricNames = map[RuleKind]string{
	TouchedDisallowedStorageSlot: metricsPrefix + "violations/storage",
	CalledContractWithNoCode:     metricsPrefix + "violations/nocode",
	TouchedDisallowedContext:     metricsPrefix + "violations/context",
	ExceededComputationalBudget:  metricsPrefix + "violations/budget",
}

type tracerMetrics struct {
	instructions     metrics.Counter
	trustedSlots     metrics.Counter
	trustedAddresses metrics.Counter
	gasUsed          metrics.Gauge
	violations       map[RuleKind]metrics.Counter
}

// newMetrics returns metrics shared by all tracers using `r`, which defaults
// to [metrics.DefaultRegistry] if nil.
func newMetrics(r metrics.Registry) *tracerMetrics {
	m := &tracerMetrics{
		instructions:     metrics.GetOrRegisterCounter(metricsPrefix+"instructions", r),
		trustedSlots:     metrics.GetOrRegisterCounter(metricsPrefix+"trusted/slots", r),
		trustedAddresses: metrics.GetOrRegisterCounter(metricsPrefix+"trusted/addresses", r),
		gasUsed:          metrics.GetOrRegisterGauge(metricsPrefix+"computational_gas", r),
		violations:       make(map[RuleKind]metrics.Counter, len(violationMetricNames)),
	}
	for k, name := range violationMetricNames {
		m.violations[k] = metrics.GetOrRegisterCounter(name, r)
	}
	return m
}

func (m *tracerMetrics) violation(k RuleKind) {
	if c, ok := m.violations[k]; ok {
		c.Inc(1)
	}
}
