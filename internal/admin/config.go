package admin

// DefaultEndpoint is the path of the admin socket if none is configured.
const DefaultEndpoint = "/tmp/netmon-admin.sock"

// Namespace prefixes all admin methods, e.g. netmon_status.
const Namespace = "netmon"

type Config struct {
	// Endpoint is the path of the unix socket the admin api is served
	// on. The api is disabled if empty.
	Endpoint string `conf:"endpoint"`
}
