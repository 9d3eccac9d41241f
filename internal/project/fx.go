package project

import (
	"github.com/smallbiznis/faktura/internal/project/repository"
	"github.com/smallbiznis/faktura/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
