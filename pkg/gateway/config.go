package gateway

// Options holds the gateway's command-line surface: --host (default
// 127.0.0.1 or config file) and --port (default 6688 or config file).
type Options struct {
	Host string
	Port int
}

// DefaultHost is used when neither --host nor the config file specify one.
const DefaultHost = "127.0.0.1"

// ResolveOptions fills in defaults for any zero-valued Options fields,
// layering CLI flags over the configuration snapshot's port.
func ResolveOptions(opts Options, configPort int) Options {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = configPort
	}
	return opts
}
