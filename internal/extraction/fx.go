package extraction

import (
	"strings"

	"github.com/smallbiznis/faktura/internal/audit/masking"
	"github.com/smallbiznis/faktura/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewExtractor(cfg config.Config, log *zap.Logger) Extractor {
	if strings.TrimSpace(cfg.ExtractionEndpoint) == "" {
		log.Named("extraction").Info("no extraction endpoint configured, using static extractor")
		return NewStaticExtractor()
	}
	log.Named("extraction").Info("extraction client configured",
		zap.String("endpoint", cfg.ExtractionEndpoint),
		zap.String("api_key", masking.MaskSecret(cfg.ExtractionAPIKey)),
	)
	return newHTTPExtractor(cfg.ExtractionEndpoint, cfg.ExtractionAPIKey, log)
}

var Module = fx.Module("extraction",
	fx.Provide(NewExtractor),
)
