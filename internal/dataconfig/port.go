package dataconfig

import "time"

type DataConfigServiceAPI interface {
	GetByNameIfModified(name string, clientLastModified *time.Time, clientChecksum string) (*GetConfigResult, error)
}

var _ DataConfigServiceAPI = (*DataConfigService)(nil)
