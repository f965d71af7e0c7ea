package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

// DefaultAPIKey is the well-known development credential shared by the example
// relay and the reference client.
const DefaultAPIKey = "dev-key-openvto"

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	// Client settings.
	VTOBaseURL  string `env:"VTO_BASE_URL" envDefault:"http://localhost:8080"`
	VTOAPIKey   string `env:"VTO_API_KEY" envDefault:"dev-key-openvto"`
	VTODataDir  string `env:"VTO_DATA_DIR" envDefault:"datas/client"`
	VTOStubMode bool   `env:"VTO_STUB_MODE" envDefault:"false"`
	// StubLatencyMS delays stub responses to emulate remote processing.
	StubLatencyMS int `env:"VTO_STUB_LATENCY_MS" envDefault:"0"`

	// RelayAPIKey is the credential the relay requires on generation calls.
	RelayAPIKey string `env:"RELAY_API_KEY" envDefault:"dev-key-openvto"`

	// Relay database settings.
	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"openvto"`
	DBPath     string `env:"DBPath" envDefault:"datas/openvto.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// Relay asset storage settings.
	StorageType          string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/media"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`
	AssetsDir            string `env:"ASSETS_DIR" envDefault:"datas/assets"`

	// S3-compatible storage.
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// Aliyun OSS storage.
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// Tencent COS storage.
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 storage.
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	// Relay generation provider.
	ProviderName     string `env:"PROVIDER" envDefault:"stub"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY" envDefault:""`
	GeminiImageModel string `env:"GEMINI_IMAGE_MODEL" envDefault:"gemini-2.5-flash-image"`
	VolcengineAPIKey string `env:"VOLCENGINE_API_KEY" envDefault:""`
	VolcengineModel  string `env:"VOLCENGINE_MODEL" envDefault:"doubao-seedream-4-0-250828"`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}
