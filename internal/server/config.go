package server

type HttpConfig struct {
	// Enabled toggles the http status server.
	Enabled bool `conf:"enabled"`

	Host string `conf:"host"`
	Port int    `conf:"port"`
	H2c  bool   `conf:"h2c"`
}
