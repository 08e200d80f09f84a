package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "LotLine"
	s.Main.Log.Enabled = true
	s.Main.Log.Path = "logs/lotline.log"
	s.Main.Log.Rotation = RotationDaily
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "lotline.db"
	s.Import.Directory = "data/imports"
	s.Import.BatchSize = 1000
	s.Export.Directory = "data/exports"
	s.Report.CacheTTL = 60
	return s
}

func TestValidateSettingsValid(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRequiresDatabase(t *testing.T) {
	s := validSettings()
	s.Output.SQLite.Enabled = false

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one database output")
}

func TestValidateSettingsMySQLPort(t *testing.T) {
	s := validSettings()
	s.Output.MySQL.Enabled = true
	s.Output.MySQL.Database = "lotline"
	s.Output.MySQL.Host = "localhost"
	s.Output.MySQL.Port = "notaport"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid TCP port")
}

func TestValidateSettingsImportBatchSize(t *testing.T) {
	s := validSettings()
	s.Import.BatchSize = 0

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batchsize")
}

func TestValidateSettingsUnknownRotation(t *testing.T) {
	s := validSettings()
	s.Main.Log.Rotation = "hourly"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log rotation type")
}
