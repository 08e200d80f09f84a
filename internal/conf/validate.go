// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError holds the accumulated validation failures for a settings load.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the settings loaded from the configuration file.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateImportSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateLogSettings(&settings.Main.Log); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	var errs []string

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		errs = append(errs, "at least one database output (sqlite or mysql) must be enabled")
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path must be set when sqlite output is enabled")
	}

	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Database == "" {
			errs = append(errs, "output.mysql.database must be set when mysql output is enabled")
		}
		if settings.Output.MySQL.Host == "" {
			errs = append(errs, "output.mysql.host must be set when mysql output is enabled")
		}
		if port, err := strconv.Atoi(settings.Output.MySQL.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, "output.mysql.port must be a valid TCP port")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateImportSettings(settings *Settings) error {
	var errs []string

	if settings.Import.BatchSize < 1 {
		errs = append(errs, "import.batchsize must be at least 1")
	}

	if settings.Import.Directory == "" {
		errs = append(errs, "import.directory must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogSettings(logConfig *LogConfig) error {
	if !logConfig.Enabled {
		return nil
	}

	var errs []string

	if logConfig.Path == "" {
		errs = append(errs, "main.log.path must be set when logging is enabled")
	}

	switch logConfig.Rotation {
	case RotationDaily, RotationWeekly, RotationSize:
	default:
		errs = append(errs, fmt.Sprintf("unknown log rotation type: %s", logConfig.Rotation))
	}

	if logConfig.Rotation == RotationSize && logConfig.MaxSize <= 0 {
		errs = append(errs, "main.log.maxsize must be positive for size based rotation")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
