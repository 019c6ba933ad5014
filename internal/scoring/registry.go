package scoring

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medml-risk-server/internal/domain"
)

// Model kinds accepted in configuration
const (
	KindLogistic = "logistic"
	KindRemote   = "remote"
	KindNone     = "none"
)

// ModelStatus reports whether a disease has a usable model
type ModelStatus struct {
	Disease   domain.Disease `json:"disease"`
	Available bool           `json:"available"`
	Kind      string         `json:"kind,omitempty"`
	Version   string         `json:"version,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// Registry holds the model for each disease. It is filled once at startup
// and only read afterwards.
type Registry struct {
	models map[domain.Disease]Model
	status map[domain.Disease]ModelStatus
}

// NewRegistry wraps an explicit set of models. Diseases missing from the
// map are unavailable.
func NewRegistry(models map[domain.Disease]Model) *Registry {
	r := &Registry{
		models: make(map[domain.Disease]Model, len(models)),
		status: make(map[domain.Disease]ModelStatus, len(domain.Diseases)),
	}
	for _, d := range domain.Diseases {
		if m, ok := models[d]; ok && m != nil {
			r.models[d] = m
			r.status[d] = ModelStatus{Disease: d, Available: true}
			continue
		}
		r.status[d] = ModelStatus{Disease: d, Reason: "not configured"}
	}
	return r
}

// LoadRegistry builds every configured model. Individual failures leave the
// disease unavailable and are logged; they never abort startup.
func LoadRegistry(ctx context.Context, cfg domain.ModelsConfig, source ArtifactSource, logger *logrus.Logger) *Registry {
	r := &Registry{
		models: make(map[domain.Disease]Model, len(domain.Diseases)),
		status: make(map[domain.Disease]ModelStatus, len(domain.Diseases)),
	}

	for _, d := range domain.Diseases {
		mc := cfg.For(d)
		kind := mc.Kind
		if kind == "" {
			kind = KindLogistic
		}
		status := ModelStatus{Disease: d, Kind: kind}

		model, version, err := buildModel(ctx, d, kind, mc, source, logger)
		if err != nil {
			status.Reason = err.Error()
			logger.WithFields(logrus.Fields{
				"disease": d,
				"kind":    kind,
			}).WithError(err).Warn("Model unavailable")
		} else {
			r.models[d] = model
			status.Available = true
			status.Version = version
			logger.WithFields(logrus.Fields{
				"disease": d,
				"kind":    kind,
				"version": version,
			}).Info("Model loaded")
		}
		r.status[d] = status
	}
	return r
}

func buildModel(ctx context.Context, d domain.Disease, kind string, mc domain.ModelConfig, source ArtifactSource, logger *logrus.Logger) (Model, string, error) {
	switch kind {
	case KindNone:
		return nil, "", fmt.Errorf("disabled by configuration")
	case KindRemote:
		m, err := NewRemoteModel(RemoteConfig{
			Disease:   d,
			Endpoint:  mc.Endpoint,
			Timeout:   mc.Timeout,
			RateLimit: mc.RateLimit,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return m, "remote", nil
	case KindLogistic:
		if source == nil {
			return nil, "", fmt.Errorf("no artifact source configured")
		}
		name := mc.Artifact
		if name == "" {
			name = string(d) + ".json"
		}
		rc, err := source.Open(ctx, name)
		if err != nil {
			return nil, "", err
		}
		defer rc.Close()

		m, err := LoadLogistic(rc, d)
		if err != nil {
			return nil, "", err
		}
		return m, m.Version(), nil
	}
	return nil, "", fmt.Errorf("unknown model kind %q", kind)
}

// Get returns the model for disease and whether one is loaded.
func (r *Registry) Get(d domain.Disease) (Model, bool) {
	m, ok := r.models[d]
	return m, ok
}

// Status lists availability in processing order.
func (r *Registry) Status() []ModelStatus {
	out := make([]ModelStatus, 0, len(domain.Diseases))
	for _, d := range domain.Diseases {
		out = append(out, r.status[d])
	}
	return out
}

// NewSource returns the artifact source selected by cfg.Source.
func NewSource(ctx context.Context, cfg domain.ModelsConfig) (ArtifactSource, error) {
	switch cfg.Source {
	case "", "dir":
		return NewDirSource(cfg.Dir), nil
	case "s3":
		return NewS3Source(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("unknown model source %q", cfg.Source)
}
