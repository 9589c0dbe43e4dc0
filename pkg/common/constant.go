package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTDbDSN  string = "IOT_DB_DSN"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTSeedPath string = "IOT_SEED_PATH"

	EnvKeyIOTLiveRequirePin    string = "IOT_LIVE_REQUIRE_PIN"
	EnvKeyIOTLiveWriteTimeout  string = "IOT_LIVE_WRITE_TIMEOUT_MS"
	EnvKeyIOTMeterCacheTTLSecs string = "IOT_METER_CACHE_TTL_SECONDS"

	EnvKeyIOTAmqpURL      string = "IOT_AMQP_URL"
	EnvKeyIOTAmqpExchange string = "IOT_AMQP_EXCHANGE"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameLive          string = "live"
	LoggerNameRelay         string = "relay"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerFieldIOTCategory  string = "category"

	LoggerCategoryIOTMeter     string = "meter"
	LoggerCategoryIOTReading   string = "reading"
	LoggerCategoryIOTIngest    string = "ingest"
	LoggerCategoryLiveRegistry string = "registry"
	LoggerCategoryLiveBcast    string = "broadcast"
	LoggerCategoryLiveChannel  string = "channel"

	// Layout of every timestamp that leaves the service.
	TimestampLayout string = "2006-01-02 15:04:05"
)
