package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyAquaDBType string = "AQUA_DB_TYPE"
	EnvKeyAquaDbPath string = "AQUA_DB_PATH"

	EnvKeyAquaHttpHostPort string = "AQUA_HTTP_HOST_PORT"
	EnvKeyAquaGrpcHostPort string = "AQUA_GRPC_HOST_PORT"

	EnvKeyAquaDefaultRate  string = "AQUA_DEFAULT_RATE"
	EnvKeyAquaDefaultBurst string = "AQUA_DEFAULT_BURST"

	EnvKeyAquaUnitRate         string = "AQUA_UNIT_RATE"
	EnvKeyAquaFilterLifeLiters string = "AQUA_FILTER_LIFE_LITERS"
	EnvKeyAquaAlertCooldown    string = "AQUA_ALERT_COOLDOWN"
	EnvKeyAquaTimezone         string = "AQUA_TIMEZONE"

	EnvKeyAquaStoreTimeout string = "AQUA_STORE_TIMEOUT"
	EnvKeyAquaStoreRetries string = "AQUA_STORE_RETRIES"
	EnvKeyAquaStoreBackoff string = "AQUA_STORE_BACKOFF"

	EnvKeyAquaRedisAddr     string = "AQUA_REDIS_ADDR"
	EnvKeyAquaRedisPassword string = "AQUA_REDIS_PASSWORD"
	EnvKeyAquaRedisDB       string = "AQUA_REDIS_DB"

	EnvKeyAquaKafkaBrokers string = "AQUA_KAFKA_BROKERS"
	EnvKeyAquaKafkaTopic   string = "AQUA_KAFKA_TOPIC"

	EnvKeyAquaMqttBroker      string = "AQUA_MQTT_BROKER"
	EnvKeyAquaMqttTopicPrefix string = "AQUA_MQTT_TOPIC_PREFIX"
	EnvKeyAquaMqttUsers       string = "AQUA_MQTT_USERS"
	EnvKeyAquaMqttUsername    string = "AQUA_MQTT_USERNAME"
	EnvKeyAquaMqttPassword    string = "AQUA_MQTT_PASSWORD"

	LoggerNameAquaCore      string = "aqua_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameStore         string = "store"
	LoggerNameNotify        string = "notify"
	LoggerNameFeed          string = "feed"
	LoggerNameCli           string = "cli"

	LoggerFieldAquaCategory        string = "category"
	LoggerCategoryAquaUsage        string = "usage"
	LoggerCategoryAquaAlert        string = "alert"
	LoggerCategoryAquaSensor       string = "sensor"
	LoggerCategoryAquaSubscription string = "subscription"
)
