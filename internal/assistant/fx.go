package assistant

import (
	"github.com/smallbiznis/faktura/internal/assistant/llm"
	"github.com/smallbiznis/faktura/internal/assistant/repository"
	"github.com/smallbiznis/faktura/internal/assistant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assistant.service",
	fx.Provide(llm.NewCompleter),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
