// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "LotLine")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/lotline.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10485760)
	viper.SetDefault("main.log.rotationday", "Sunday")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "lotline.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "lotline")
	viper.SetDefault("output.mysql.password", "lotline")
	viper.SetDefault("output.mysql.database", "lotline")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("import.directory", "data/imports")
	viper.SetDefault("import.batchsize", 1000)

	viper.SetDefault("export.directory", "data/exports")

	viper.SetDefault("report.cachettl", 60)
}
