// Package config loads the live CLI configuration.
//
// The configuration is stored in a YAML file, live.yaml by default. Every
// field is optional:
//
//	server:
//	  url: http://localhost:8080/
//	  path: live
//	document: page.html
//	session:
//	  marker_class: live
//	  backoff_base: 100ms
//	  backoff_ceiling: 60s
//	  max_outbox: 1000
//	  script_timeout: 5s
//	metrics:
//	  addr: ":9090"
//	snapshot:
//	  location: s3://bucket/page.html
//	  s3:
//	    region: eu-west-1
//	    endpoint: http://localhost:9000
//	    use_path_style: true
//	log:
//	  level: info
//	  format: text
//	serve:
//	  addr: ":8080"
//	  script: commands.jsonl
//
// After the file is read, process-level settings are taken from LIVE_*
// environment variables when set:
//
//	LIVE_LOG_LEVEL, LIVE_LOG_FORMAT, LIVE_METRICS_ADDR,
//	LIVE_S3_REGION, LIVE_S3_ENDPOINT,
//	LIVE_S3_ACCESS_KEY_ID, LIVE_S3_SECRET_ACCESS_KEY
//
// The server URL is never read from the environment.
package config
