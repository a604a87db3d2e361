package client

import "os"

// DefaultHostname is used when neither an explicit hostname nor
// SERVICENOW_H is set.
const DefaultHostname = "e2esm.intel.com"

// Environment variables consulted for unset credentials.
const (
	EnvHostname = "SERVICENOW_H"
	EnvUsername = "SERVICENOW_U"
	EnvPassword = "SERVICENOW_P"
)

// Credentials identify a ServiceNOW instance and the account used against it.
type Credentials struct {
	Hostname string
	Username string
	Password string
}

// ResolveCredentials fills each empty argument from its environment variable.
// Hostname falls back to DefaultHostname; username and password have no default.
func ResolveCredentials(hostname, username, password string) Credentials {
	if hostname == "" {
		hostname = os.Getenv(EnvHostname)
		if hostname == "" {
			hostname = DefaultHostname
		}
	}
	if username == "" {
		username = os.Getenv(EnvUsername)
	}
	if password == "" {
		password = os.Getenv(EnvPassword)
	}

	return Credentials{
		Hostname: hostname,
		Username: username,
		Password: password,
	}
}
