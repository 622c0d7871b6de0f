package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fileshare/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct.
type JsonConfig struct {
	EndpointAddr           string `json:"endpoint_addr"`
	DatabaseDSN            string `json:"database_dsn"`
	SecretKey              string `json:"secret_key"`
	S3AccessKey            string `json:"s3_access_key"`
	S3SecretKey            string `json:"s3_secret_key"`
	S3Bucket               string `json:"s3_bucket"`
	S3Region               string `json:"s3_region"`
	S3BaseEndpoint         string `json:"s3_base_endpoint"`
	MultipartMinSize       *int   `json:"multipart_min_size"`
	MaxFilesPerUser        *int   `json:"max_files_per_user"`
	UploadBufferDepth      *int   `json:"upload_buffer_depth"`
	MaxConcurrentTransfers *int   `json:"max_concurrent_transfers"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags; if
// neither is set, no JSON file is loaded. Integer fields use pointers so
// that an explicit zero (a valid MultipartMinSize) can be distinguished
// from an absent key.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.MultipartMinSize != nil {
		config.MultipartMinSize = *c.MultipartMinSize
	}
	if c.MaxFilesPerUser != nil {
		config.MaxFilesPerUser = *c.MaxFilesPerUser
	}
	if c.UploadBufferDepth != nil {
		config.UploadBufferDepth = *c.UploadBufferDepth
	}
	if c.MaxConcurrentTransfers != nil {
		config.MaxConcurrentTransfers = *c.MaxConcurrentTransfers
	}
}
