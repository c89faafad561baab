// Package metrics exports account lifecycle counters to Prometheus.
package metrics

import (
	"github.com/dmitrijs2005/tenantkeeper/internal/filex"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tenantkeeper"

// Recorder implements services.Events with Prometheus counters. Usernames are
// not used as labels to keep cardinality bounded.
type Recorder struct {
	materialized prometheus.Counter
	provisioned  prometheus.Counter
	failures     *prometheus.CounterVec
}

var _ services.Events = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		materialized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_materialized_total",
			Help:      "Successful authentication lookups.",
		}),
		provisioned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_provisioned_total",
			Help:      "Accounts whose schema was created and migrated.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_failures_total",
			Help:      "Aborted provisioning runs by last completed stage.",
		}, []string{"stage"}),
	}
}

// Register adds the collectors to reg (the default registerer when nil).
// Collectors that are already registered are skipped.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{r.materialized, r.provisioned, r.failures} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) AccountMaterialized(string) { r.materialized.Inc() }

func (r *Recorder) AccountProvisioned(string) { r.provisioned.Inc() }

func (r *Recorder) ProvisionFailed(_ string, stage services.Stage) {
	r.failures.WithLabelValues(stage.String()).Inc()
}

// WriteTextfile dumps everything gathered by g in the text exposition format,
// for pickup by the node_exporter textfile collector. Missing parent
// directories are created.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, g)
}
