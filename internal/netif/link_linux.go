package netif

import "golang.org/x/sys/unix"

type linkFlags uint16

func (f linkFlags) up() bool {
	return f&unix.IFF_UP != 0
}

func (f linkFlags) withUp() linkFlags {
	return f | unix.IFF_UP | unix.IFF_RUNNING
}

func openControlSocket() (int, error) {
	return unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
}

func closeControlSocket(fd int) {
	unix.Close(fd)
}

func interfaceFlags(fd int, iface string) (linkFlags, error) {
	ifr, err := unix.NewIfreq(iface)
	if err != nil {
		return 0, err
	}

	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return 0, err
	}

	return linkFlags(ifr.Uint16()), nil
}

func setInterfaceFlags(fd int, iface string, flags linkFlags) error {
	ifr, err := unix.NewIfreq(iface)
	if err != nil {
		return err
	}

	ifr.SetUint16(uint16(flags))

	return unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr)
}
