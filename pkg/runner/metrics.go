package runner

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sre-norns/glance/pkg/prob"
)

type RegistryOptions struct {
	EnableOpenMetrics bool
}

// ToArtifact gathers all metrics collected in the registry during a run and encodes them in the exposition format
func ToArtifact(registry *prometheus.Registry, opts RegistryOptions) (prob.Artifact, error) {
	gatherer := prometheus.ToTransactionalGatherer(registry)
	mfs, done, err := gatherer.Gather()
	if err != nil {
		return prob.Artifact{}, err
	}
	defer done()

	contentType := expfmt.NewFormat(expfmt.TypeTextPlain)
	if opts.EnableOpenMetrics {
		contentType = expfmt.NewFormat(expfmt.TypeOpenMetrics)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, contentType)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return prob.Artifact{}, fmt.Errorf("failed to encode metrics family %q: %w", mf.GetName(), err)
		}
	}

	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return prob.Artifact{}, fmt.Errorf("failed to finalize metrics: %w", err)
		}
	}

	return prob.Artifact{
		Rel:      prob.RelMetrics,
		MimeType: string(contentType),
		Content:  buf.Bytes(),
	}, nil
}
