package cli

import (
	"github.com/jrsteele09/go-lawfirm-console/backend"
	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/internal/config"
	"github.com/jrsteele09/go-lawfirm-console/metrics"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stack is the session machinery shared by every command.
type stack struct {
	store      *tokens.FallbackStore
	client     *backend.Client
	controller *session.Controller
	guard      *guard.Guard
	collector  *metrics.Collector
	registry   *prometheus.Registry
}

func newStack(cfg config.Config) (*stack, error) {
	var fileOpts []tokens.FileMediumOption
	if passphrase := cfg.GetTokenSealPassphrase(); passphrase != "" {
		fileOpts = append(fileOpts, tokens.WithSealPassphrase(passphrase))
	}
	store := tokens.NewFileStore(cfg.GetTokenFile(), fileOpts...)

	client, err := backend.New(cfg.GetBackendBaseURL(), backend.WithTimeout(cfg.GetRequestTimeout()))
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	controller, err := session.NewController(store, client, session.WithRecorder(collector))
	if err != nil {
		return nil, err
	}
	g, err := guard.New(controller, guard.DefaultRequirements(), guard.WithRecorder(collector))
	if err != nil {
		return nil, err
	}

	return &stack{
		store:      store,
		client:     client,
		controller: controller,
		guard:      g,
		collector:  collector,
		registry:   registry,
	}, nil
}
