package realtime

// ConnectOptions carries everything a transport needs to open and maintain
// one authenticated connection.
type ConnectOptions struct {
	// Token authenticates the connection against the realtime provider.
	Token string

	// OnMessage receives every frame delivered on a subscribed channel.
	OnMessage MessageFunc

	// OnError receives fatal connection errors, including a failed token
	// renewal. The transport is unusable afterwards.
	OnError func(err error)

	// Renew is invoked when the provider signals that the token is about
	// to expire. A nil Renew disables renewal.
	Renew RenewalFunc
}

// Transport is the provider-specific realtime connection. Implementations
// live in pkg/realtime/adapter; the manager is the only caller.
type Transport interface {
	// Connect opens the connection and returns once it is ready.
	Connect(opts ConnectOptions) error

	// Subscribe attaches the connection to a channel. The transport
	// delivers matching frames through ConnectOptions.OnMessage.
	Subscribe(channel string) error

	// Unsubscribe detaches the connection from a channel.
	Unsubscribe(channel string) error

	// Close tears the connection down. It must be safe to call on a
	// transport that never connected.
	Close() error
}
