package config

import "github.com/JonMunkholm/fundsheet/internal/core"

// ServiceOptions returns the core service settings carried by c.
func (c *Config) ServiceOptions() core.ServiceOptions {
	return core.ServiceOptions{
		Table:         c.Database.Table,
		HeaderRows:    c.Upload.HeaderRows,
		RetainUploads: c.Upload.Retain,
		ExportDir:     c.Export.Dir,
		MaxConcurrent: c.Upload.MaxConcurrent,
		MaxWait:       c.Upload.MaxWaitTime,
		IngestTimeout: c.Upload.Timeout,
	}
}
