package netif

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/puddle/v2"
	"go.uber.org/zap"
)

var ErrUnsupportedPlatform = errors.New("link control is not supported on this platform")

// LinkController brings interfaces administratively up.
type LinkController interface {
	// SetUp sets the up and running flags on iface unless it is already
	// up. It reports whether the flags were changed.
	SetUp(ctx context.Context, iface string) (bool, error)
}

// maxControlSockets bounds the number of ioctl sockets kept open.
const maxControlSockets = 2

// Link is a LinkController backed by interface ioctls. Control sockets
// are pooled and closed by Close.
type Link struct {
	sockets *puddle.Pool[int]
	log     *zap.Logger
}

var _ LinkController = (*Link)(nil)

func NewLink(log *zap.Logger) (*Link, error) {
	sockets, err := puddle.NewPool(&puddle.Config[int]{
		Constructor: func(context.Context) (int, error) {
			return openControlSocket()
		},
		Destructor: func(fd int) {
			closeControlSocket(fd)
		},
		MaxSize: maxControlSockets,
	})
	if err != nil {
		return nil, err
	}

	return &Link{
		sockets: sockets,
		log:     log.Named("link"),
	}, nil
}

func (l *Link) SetUp(ctx context.Context, iface string) (bool, error) {
	log := l.log.With(zap.String("interface", iface))

	res, err := l.sockets.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire control socket: %w", err)
	}

	flags, err := interfaceFlags(res.Value(), iface)
	if err != nil {
		res.Destroy()
		return false, fmt.Errorf("error getting interface flags: %w", err)
	}

	if flags.up() {
		res.Release()
		log.Info("interface is already up")
		return false, nil
	}

	if err := setInterfaceFlags(res.Value(), iface, flags.withUp()); err != nil {
		res.Destroy()
		return false, fmt.Errorf("error setting interface up: %w", err)
	}

	res.Release()
	log.Info("successfully set interface up")

	return true, nil
}

// Close closes all pooled control sockets.
func (l *Link) Close() {
	l.sockets.Close()
}
