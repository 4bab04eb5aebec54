package data

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/cancel"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
)

// Data 持有 fact_radar 运行时，供各仓库实现共享
type Data struct {
	rt  *engine.Runtime
	log *log.Helper
}

// NewData 包装已构建的运行时
func NewData(rt *engine.Runtime, logger log.Logger) *Data {
	return &Data{rt: rt, log: log.NewHelper(logger)}
}

// NewCancelRegistry 暴露引擎使用的取消登记表
func NewCancelRegistry(d *Data) cancel.Registry {
	return d.rt.Registry
}
