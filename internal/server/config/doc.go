// Package config defines the kvantum-server configuration.
//
// Values come from Default, then the YAML file, then KVANTUM_ environment
// variables (see confloader). Verify reports every invalid field at once.
//
// Example file:
//
//	server:
//	  listen:
//	    addr: "127.0.0.1:7070"
//	    accept_rate: 500
//	    accept_burst: 50
//	  admin:
//	    enabled: true
//	    addr: "127.0.0.1:7080"
//	workers:
//	  size: 32
//	shutdown:
//	  timeout: 10s
//	filters:
//	  store: file
//	  dir: /var/lib/kvantum-server/settings
//	  allow_list: ["10.0.0.0/8"]
//	log:
//	  level: info
package config
