//go:build !linux

package netif

type linkFlags uint16

func (f linkFlags) up() bool {
	return false
}

func (f linkFlags) withUp() linkFlags {
	return f
}

func openControlSocket() (int, error) {
	return -1, ErrUnsupportedPlatform
}

func closeControlSocket(int) {}

func interfaceFlags(int, string) (linkFlags, error) {
	return 0, ErrUnsupportedPlatform
}

func setInterfaceFlags(int, string, linkFlags) error {
	return ErrUnsupportedPlatform
}
