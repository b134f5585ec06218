package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// openTarget connects to the configured local database.
func (cc *CommandContext) openTarget(ctx context.Context) (adapter.Adapter, error) {
	if err := cc.Cfg.ValidateTarget(); err != nil {
		return nil, err
	}
	a, err := adapter.Open(ctx, cc.Cfg.Target.AdapterConfig(), cc.Logger)
	if err != nil {
		return nil, err
	}
	cc.Logger.Debug("opened target", "type", cc.Cfg.Target.Type, "database", cc.Cfg.Target.Database)
	return a, nil
}

// sqlHandle returns the adapter's database/sql handle.
func sqlHandle(a adapter.Adapter) (adapter.SQLHandle, error) {
	h, ok := a.(adapter.SQLHandle)
	if !ok || h.SQLDB() == nil {
		return nil, fmt.Errorf("%s adapter does not expose a SQL connection", a.Dialect().Name)
	}
	return h, nil
}
