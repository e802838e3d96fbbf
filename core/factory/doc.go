// Package factory maps configuration entries of the form
//
//	sinks:
//	  - type: influx
//	    conf: {url: "http://localhost:8086", bucket: schedules}
//
// to implementations registered under that type name. Type names are matched
// case-insensitively and conf is decoded with Decode, which accepts the same
// json tags as the rest of the configuration and parses durations like "5s".
package factory
