package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fileshare/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m int      minimum multipart part size, bytes (0 = flush every chunk)
//	-q int      file quota for standard-tier owners
//	-w int      upload pipeline buffer depth
//	-t int      max concurrent upload/download requests
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-u", "-p", "-b", "-g", "-e", "-m", "-q", "-w", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.IntVar(&config.MultipartMinSize, "m", config.MultipartMinSize, "minimum multipart part size (bytes)")
	fs.IntVar(&config.MaxFilesPerUser, "q", config.MaxFilesPerUser, "file quota for standard-tier owners")
	fs.IntVar(&config.UploadBufferDepth, "w", config.UploadBufferDepth, "upload pipeline buffer depth")
	fs.IntVar(&config.MaxConcurrentTransfers, "t", config.MaxConcurrentTransfers, "max concurrent transfers")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
