package config

const (
	EnvPrefix = "RUIZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "RUIZ_DB_DSN"
	EnvDBHost = "RUIZ_DB_HOST"
	EnvDBUser = "RUIZ_DB_USER"
	EnvDBName = "RUIZ_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
