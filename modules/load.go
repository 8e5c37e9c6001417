package modules

import (
	"github.com/jacksonlee411/taskgrid/pkg/application"
)

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
		app.Logger().WithField("module", module.Name()).Debug("module registered")
	}
	return nil
}
